package model

import (
	"errors"
	"strings"
	"time"
)

// ReminderRecord is the ledger projection of a Task that the background
// poller reads. It is never the source of truth.
type ReminderRecord struct {
	ID       int64
	Name     string
	Time     time.Time
	Done     bool
	Notified bool
}

func (r ReminderRecord) Validate() error {
	if r.ID <= 0 {
		return errors.New("model: reminder id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("model: reminder name is required")
	}
	if r.Time.IsZero() {
		return errors.New("model: reminder time is required")
	}
	return nil
}

// Pending reports whether the record still awaits delivery.
func (r ReminderRecord) Pending() bool {
	return !r.Done && !r.Notified
}

// Overdue returns how long ago the record became due. Negative values mean
// it is not due yet.
func (r ReminderRecord) Overdue(now time.Time) time.Duration {
	return now.Sub(r.Time)
}

// Matches reports whether the record mirrors the task's current occurrence.
func (r ReminderRecord) Matches(t Task) bool {
	return r.ID == t.ID && r.Time.Equal(t.Time) && r.Done == t.Done && r.Name == t.Name
}
