package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/remindd/internal/model"
)

// handleAlertKey answers the in-page alert. Any other key leaves it open.
func (m Model) handleAlertKey(msg tea.KeyMsg) Model {
	task := *m.Alert
	switch msg.String() {
	case "d":
		m.Alert = nil
		if err := m.backend.Apply(m.ctx, model.ActionEvent{Kind: model.ActionDone, ReminderID: task.ID}); err != nil {
			m.fail(err)
			return m
		}
		m.Status = StatusBar{Text: fmt.Sprintf("done: %s", task.Name), IsError: false}
	case "s":
		m.Alert = nil
		ev := model.ActionEvent{Kind: model.ActionSnooze, ReminderID: task.ID, Minutes: m.snoozeMinutes}
		if err := m.backend.Apply(m.ctx, ev); err != nil {
			m.fail(err)
			return m
		}
		m.Status = StatusBar{Text: fmt.Sprintf("snoozed %s for %d minutes", task.Name, m.snoozeMinutes), IsError: false}
	case "esc", "enter":
		m.Alert = nil
		m.Status = StatusBar{Text: "reminder dismissed", IsError: false}
	default:
		return m
	}
	m.refresh()
	return m
}

func (m Model) handleListKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "j", "down":
		m.Cursor++
		m.clampCursor()
		return m
	case "k", "up":
		m.Cursor--
		m.clampCursor()
		return m
	}

	id := m.SelectedID()
	if id == 0 || m.backend == nil {
		return m
	}
	switch msg.String() {
	case " ":
		task, err := m.backend.Toggle(m.ctx, id)
		if err != nil {
			m.fail(err)
			return m
		}
		if task.Done {
			m.Status = StatusBar{Text: fmt.Sprintf("done: %s", task.Name), IsError: false}
		} else {
			m.Status = StatusBar{Text: fmt.Sprintf("reopened: %s", task.Name), IsError: false}
		}
	case "s":
		ev := model.ActionEvent{Kind: model.ActionSnooze, ReminderID: id, Minutes: m.snoozeMinutes}
		if err := m.backend.Apply(m.ctx, ev); err != nil {
			m.fail(err)
			return m
		}
		m.Status = StatusBar{Text: fmt.Sprintf("snoozed #%d for %d minutes", id, m.snoozeMinutes), IsError: false}
	case "x":
		if err := m.backend.Delete(m.ctx, id); err != nil {
			m.fail(err)
			return m
		}
		m.Status = StatusBar{Text: fmt.Sprintf("deleted #%d", id), IsError: false}
	default:
		return m
	}
	m.refresh()
	return m
}

func (m Model) runTest() Model {
	if m.backend == nil {
		return m
	}
	task, err := m.backend.TestReminder(m.ctx)
	if err != nil {
		m.fail(err)
		return m
	}
	m.Status = StatusBar{Text: fmt.Sprintf("test reminder #%d due %s", task.ID, task.Time.Format("15:04:05")), IsError: false}
	m.refresh()
	return m
}

func formatWhen(t, now time.Time) string {
	t = t.In(now.Location())
	y, mo, d := t.Date()
	ny, nmo, nd := now.Date()
	if y == ny && mo == nmo && d == nd {
		return t.Format("15:04")
	}
	if y == ny {
		return t.Format("Jan 2 15:04")
	}
	return t.Format("2006-01-02 15:04")
}
