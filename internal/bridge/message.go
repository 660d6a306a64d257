package bridge

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/remindd/internal/model"
)

var ErrMalformedMessage = errors.New("bridge: malformed message")

type MessageType string

const (
	TypeMarkDone      MessageType = "MARK_DONE"
	TypeSnooze        MessageType = "SNOOZE"
	TypeSpeakReminder MessageType = "SPEAK_REMINDER"
)

// Message crosses between the background worker and the page.
type Message struct {
	ID         string      `json:"id"`
	Type       MessageType `json:"type"`
	ReminderID int64       `json:"reminderId,omitempty"`
	Minutes    int         `json:"minutes,omitempty"`
	TaskName   string      `json:"taskName,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (m Message) Validate() error {
	switch m.Type {
	case TypeMarkDone:
		if m.ReminderID <= 0 {
			return fmt.Errorf("%w: %s without reminderId", ErrMalformedMessage, m.Type)
		}
	case TypeSnooze:
		if m.ReminderID <= 0 {
			return fmt.Errorf("%w: %s without reminderId", ErrMalformedMessage, m.Type)
		}
		if m.Minutes < 0 {
			return fmt.Errorf("%w: negative snooze minutes %d", ErrMalformedMessage, m.Minutes)
		}
	case TypeSpeakReminder:
		if strings.TrimSpace(m.TaskName) == "" {
			return fmt.Errorf("%w: %s without taskName", ErrMalformedMessage, m.Type)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, m.Type)
	}
	return nil
}

// Action converts a task message into the action it requests.
func (m Message) Action() (model.ActionEvent, bool) {
	switch m.Type {
	case TypeMarkDone:
		return model.ActionEvent{Kind: model.ActionDone, ReminderID: m.ReminderID}, true
	case TypeSnooze:
		return model.ActionEvent{Kind: model.ActionSnooze, ReminderID: m.ReminderID, Minutes: m.Minutes}, true
	default:
		return model.ActionEvent{}, false
	}
}

// FromAction builds the message for ev. Default actions only make sense
// with a page attached and have no message form.
func FromAction(ev model.ActionEvent) (Message, bool) {
	switch ev.Kind {
	case model.ActionDone:
		return Message{Type: TypeMarkDone, ReminderID: ev.ReminderID}, true
	case model.ActionSnooze:
		return Message{Type: TypeSnooze, ReminderID: ev.ReminderID, Minutes: ev.SnoozeMinutes()}, true
	default:
		return Message{}, false
	}
}

func SpeakMessage(taskName string) Message {
	return Message{Type: TypeSpeakReminder, TaskName: taskName}
}

func (m Message) stamped(now time.Time) Message {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now.UTC()
	}
	return m
}
