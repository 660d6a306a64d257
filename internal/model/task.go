package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRepeat = errors.New("model: invalid repeat")
	ErrInvalidTask   = errors.New("model: invalid task")
)

type Repeat string

const (
	RepeatNever   Repeat = "never"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

func (r Repeat) IsValid() bool {
	switch r {
	case RepeatNever, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	default:
		return false
	}
}

// Recurring reports whether completing an occurrence spawns another one.
func (r Repeat) Recurring() bool {
	return r == RepeatDaily || r == RepeatWeekly || r == RepeatMonthly
}

// ParseRepeat maps user input to a Repeat. Empty input means never.
func ParseRepeat(raw string) (Repeat, error) {
	v := Repeat(strings.ToLower(strings.TrimSpace(raw)))
	if v == "" {
		return RepeatNever, nil
	}
	if !v.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepeat, raw)
	}
	return v, nil
}

// Task is a single reminder occurrence. Repeating tasks form a chain of
// independent tasks linked only by name and repeat.
type Task struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Time      time.Time `json:"time"`
	Done      bool      `json:"done"`
	Repeat    Repeat    `json:"repeat"`
	Scheduled bool      `json:"scheduled"`
}

func (t Task) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidTask)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTask)
	}
	if t.Time.IsZero() {
		return fmt.Errorf("%w: time is required", ErrInvalidTask)
	}
	if !t.Repeat.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRepeat, t.Repeat)
	}
	return nil
}

// Normalize fills defaults for records written by older versions.
func (t Task) Normalize() Task {
	if !t.Repeat.IsValid() {
		t.Repeat = RepeatNever
	}
	return t
}

// Record projects the task into the ledger shape with notified reset.
func (t Task) Record() ReminderRecord {
	return ReminderRecord{
		ID:   t.ID,
		Name: t.Name,
		Time: t.Time,
		Done: t.Done,
	}
}

// IndexOf returns the position of id in tasks or -1.
func IndexOf(tasks []Task, id int64) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
