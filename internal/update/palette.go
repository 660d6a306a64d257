package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/remindd/internal/commands"
	"github.com/sandeepkv93/remindd/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.fail(err)
		return m
	}
	if m.backend == nil {
		m.fail(fmt.Errorf("no backend attached"))
		return m
	}

	res, err := commands.Execute(cmd, m.handlers())
	if err != nil {
		m.fail(err)
		return m
	}
	m.Status = StatusBar{Text: res.Message, IsError: false}
	m.refresh()
	return m
}

func (m Model) handlers() commands.Handlers {
	ctx, b := m.ctx, m.backend
	return commands.Handlers{
		Add: func(a commands.TaskArgs) (commands.Result, error) {
			at, err := commands.ParseWhen(a.When, m.now())
			if err != nil {
				return commands.Result{}, err
			}
			task, err := b.Create(ctx, a.Name, at, a.Repeat)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added #%d %s @ %s", task.ID, task.Name, formatWhen(task.Time, m.now()))}, nil
		},
		Edit: func(a commands.TaskArgs) (commands.Result, error) {
			at, err := commands.ParseWhen(a.When, m.now())
			if err != nil {
				return commands.Result{}, err
			}
			task, err := b.Edit(ctx, a.ID, a.Name, at, a.Repeat)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("edited #%d %s @ %s", task.ID, task.Name, formatWhen(task.Time, m.now()))}, nil
		},
		Done: func(t commands.TargetArgs) (commands.Result, error) {
			if err := b.Apply(ctx, model.ActionEvent{Kind: model.ActionDone, ReminderID: t.ID}); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("done #%d", t.ID)}, nil
		},
		Undo: func(t commands.TargetArgs) (commands.Result, error) {
			task, ok := m.task(t.ID)
			if ok && !task.Done {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("task #%d is not done", t.ID)}
			}
			task, err := b.Toggle(ctx, t.ID)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("reopened #%d %s", task.ID, task.Name)}, nil
		},
		Snooze: func(s commands.SnoozeArgs) (commands.Result, error) {
			ev := model.ActionEvent{Kind: model.ActionSnooze, ReminderID: s.ID, Minutes: s.Minutes}
			if err := b.Apply(ctx, ev); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("snoozed #%d for %d minutes", s.ID, s.Minutes)}, nil
		},
		Delete: func(t commands.TargetArgs) (commands.Result, error) {
			if err := b.Delete(ctx, t.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleted #%d", t.ID)}, nil
		},
		Test: func() (commands.Result, error) {
			task, err := b.TestReminder(ctx)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("test reminder #%d due %s", task.ID, task.Time.Format("15:04:05"))}, nil
		},
	}
}
