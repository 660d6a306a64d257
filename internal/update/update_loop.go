package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/remindd/internal/app"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.backend != nil {
		return waitForEventCmd(m.backend.Events())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.Alert != nil {
			return m.handleAlertKey(typed), nil
		}
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed), nil
		}

		switch typed.String() {
		case m.Keys.Palette:
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case m.Keys.Test:
			return m.runTest(), nil
		case m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		return m.handleListKey(typed), nil
	case appEventMsg:
		m = m.applyEvent(typed.Event)
		if m.backend != nil {
			return m, waitForEventCmd(m.backend.Events())
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}

	return m, nil
}

func (m Model) applyEvent(ev app.Event) Model {
	switch ev.Kind {
	case app.EventAlert:
		task := ev.Task
		m.Alert = &task
		m.Status = StatusBar{Text: fmt.Sprintf("reminder: %s", task.Name), IsError: true}
	case app.EventChanged:
		m.setTasks(ev.Tasks)
	case app.EventFocus:
		if i := model.IndexOf(m.Tasks, ev.Task.ID); i >= 0 {
			m.Cursor = i
		}
		m.Status = StatusBar{Text: fmt.Sprintf("opened from notification: %s", ev.Task.Name), IsError: false}
	}
	return m
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	now := m.now()
	items := make([]views.TaskItemData, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		items = append(items, views.TaskItemData{
			ID:      t.ID,
			Name:    t.Name,
			When:    formatWhen(t.Time, now),
			Repeat:  string(t.Repeat),
			Done:    t.Done,
			Overdue: !t.Done && t.Time.Before(now),
		})
	}

	alert := ""
	if m.Alert != nil {
		alert = views.RenderAlert(views.AlertData{
			Name:          m.Alert.Name,
			When:          formatWhen(m.Alert.Time, now),
			SnoozeMinutes: m.snoozeMinutes,
		})
	}

	right := views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
	if m.HelpVisible {
		right += "\n" + m.renderHelpView()
	}

	return views.RenderApp(views.AppData{
		Header:     fmt.Sprintf("remindd | tasks: %d | selected: #%d", len(m.Tasks), m.SelectedID()),
		LeftPane:   views.RenderTaskList(views.TaskListData{Items: items, SelectedID: m.SelectedID()}),
		RightPane:  right,
		Alert:      alert,
		StatusLine: status,
		IsError:    m.Status.IsError,
		Footer:     fmt.Sprintf("keys: %s cmd | %s test | %s help | %s quit", m.Keys.Palette, m.Keys.Test, m.Keys.Help, m.Keys.Quit),
	})
}

func waitForEventCmd(ch <-chan app.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return appEventMsg{Event: ev}
	}
}
