package update

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sandeepkv93/remindd/internal/app"
	"github.com/sandeepkv93/remindd/internal/model"
)

// Backend is what the page needs from the running app.
type Backend interface {
	Tasks() []model.Task
	Events() <-chan app.Event
	Apply(ctx context.Context, ev model.ActionEvent) error
	Create(ctx context.Context, name string, at time.Time, repeat model.Repeat) (model.Task, error)
	Edit(ctx context.Context, id int64, name string, at time.Time, repeat model.Repeat) (model.Task, error)
	Delete(ctx context.Context, id int64) error
	Toggle(ctx context.Context, id int64) (model.Task, error)
	TestReminder(ctx context.Context) (model.Task, error)
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Palette string
	Test    string
	Help    string
	Quit    string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Options struct {
	SnoozeMinutes int
	Now           func() time.Time
}

type Model struct {
	Tasks       []model.Task
	Cursor      int
	Alert       *model.Task
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	ctx           context.Context
	backend       Backend
	now           func() time.Time
	snoozeMinutes int
	commandInput  textinput.Model
	helpModel     help.Model
}

type appEventMsg struct {
	Event app.Event
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

func NewModel(ctx context.Context, backend Backend, opts Options) Model {
	if opts.SnoozeMinutes <= 0 {
		opts.SnoozeMinutes = model.DefaultSnoozeMinutes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := Model{
		Keys: GlobalKeyMap{
			Palette: "/",
			Test:    "t",
			Help:    "?",
			Quit:    "q",
		},
		ctx:           ctx,
		backend:       backend,
		now:           opts.Now,
		snoozeMinutes: opts.SnoozeMinutes,
	}
	m.initBubbleComponents()
	if backend != nil {
		m.setTasks(backend.Tasks())
	}
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
}

// setTasks stores the list ordered by due time and keeps the cursor on the
// same task when it still exists.
func (m *Model) setTasks(tasks []model.Task) {
	selected := m.SelectedID()
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b model.Task) int {
		return a.Time.Compare(b.Time)
	})
	m.Tasks = sorted
	if i := model.IndexOf(sorted, selected); i >= 0 {
		m.Cursor = i
	}
	m.clampCursor()
}

func (m *Model) refresh() {
	if m.backend != nil {
		m.setTasks(m.backend.Tasks())
	}
}

func (m *Model) clampCursor() {
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m Model) SelectedID() int64 {
	if m.Cursor < 0 || m.Cursor >= len(m.Tasks) {
		return 0
	}
	return m.Tasks[m.Cursor].ID
}

func (m Model) task(id int64) (model.Task, bool) {
	i := model.IndexOf(m.Tasks, id)
	if i < 0 {
		return model.Task{}, false
	}
	return m.Tasks[i], true
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
}
