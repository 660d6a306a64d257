package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/remindd/internal/model"
)

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrUnavailable = errors.New("storage: unavailable")
)

// TasksKey is the key the task list is stored under.
const TasksKey = "tasks"

// TaskStore persists the whole task list as a single value.
type TaskStore interface {
	LoadTasks(ctx context.Context) ([]model.Task, error)
	SaveTasks(ctx context.Context, tasks []model.Task) error
}

// Ledger holds reminder records readable by the background poller.
type Ledger interface {
	PutReminder(ctx context.Context, rec model.ReminderRecord) error
	GetReminder(ctx context.Context, id int64) (model.ReminderRecord, error)
	ListReminders(ctx context.Context, filter ReminderFilter) ([]model.ReminderRecord, error)
	MarkNotified(ctx context.Context, id int64) error
	DeleteReminder(ctx context.Context, id int64) error
}

// Repository is the combined store used by a process.
type Repository interface {
	TaskStore
	Ledger
	Close() error
}

type ReminderFilter struct {
	PendingOnly bool
	Limit       int
	Offset      int
}
