package model

import (
	"errors"
	"fmt"
)

var ErrMalformedAction = errors.New("model: malformed action")

// DefaultSnoozeMinutes is used when a snooze carries no duration.
const DefaultSnoozeMinutes = 5

type ActionKind string

const (
	ActionDone    ActionKind = "done"
	ActionSnooze  ActionKind = "snooze"
	ActionDefault ActionKind = "default"
)

// Notification action identifiers.
const (
	NotificationActionDone   = "mark-done"
	NotificationActionSnooze = "snooze"
)

// ActionEvent is what the user asked for when interacting with a reminder.
type ActionEvent struct {
	Kind       ActionKind
	ReminderID int64
	Minutes    int
}

func (e ActionEvent) Validate() error {
	switch e.Kind {
	case ActionDone:
		if e.ReminderID <= 0 {
			return fmt.Errorf("%w: done requires a reminder id", ErrMalformedAction)
		}
	case ActionSnooze:
		if e.ReminderID <= 0 {
			return fmt.Errorf("%w: snooze requires a reminder id", ErrMalformedAction)
		}
		if e.Minutes < 0 {
			return fmt.Errorf("%w: snooze minutes must be positive, got %d", ErrMalformedAction, e.Minutes)
		}
	case ActionDefault:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedAction, e.Kind)
	}
	return nil
}

// SnoozeMinutes returns the effective snooze duration in minutes.
func (e ActionEvent) SnoozeMinutes() int {
	if e.Minutes <= 0 {
		return DefaultSnoozeMinutes
	}
	return e.Minutes
}

// ActionFromNotification maps a notification action identifier to an event.
// An empty action means the notification was dismissed and yields false.
func ActionFromNotification(action string, reminderID int64, snoozeMinutes int) (ActionEvent, bool) {
	switch action {
	case "":
		return ActionEvent{}, false
	case NotificationActionDone:
		return ActionEvent{Kind: ActionDone, ReminderID: reminderID}, true
	case NotificationActionSnooze:
		return ActionEvent{Kind: ActionSnooze, ReminderID: reminderID, Minutes: snoozeMinutes}, true
	default:
		return ActionEvent{Kind: ActionDefault, ReminderID: reminderID}, true
	}
}
