package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/sandeepkv93/remindd/internal/model"
)

// MemoryRepository keeps tasks and reminder records in process memory. It
// backs single-process tests and the in-process poller mode.
type MemoryRepository struct {
	mu        sync.RWMutex
	tasks     []model.Task
	reminders map[int64]model.ReminderRecord
	failWith  error
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		reminders: make(map[int64]model.ReminderRecord),
	}
}

// FailWith makes every following call return err. Pass nil to recover.
func (r *MemoryRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) LoadTasks(ctx context.Context) ([]model.Task, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	return slices.Clone(r.tasks), nil
}

func (r *MemoryRepository) SaveTasks(ctx context.Context, tasks []model.Task) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.tasks = slices.Clone(tasks)
	return nil
}

func (r *MemoryRepository) PutReminder(ctx context.Context, rec model.ReminderRecord) error {
	_ = ctx
	if err := rec.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.reminders[rec.ID] = rec
	return nil
}

func (r *MemoryRepository) GetReminder(ctx context.Context, id int64) (model.ReminderRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return model.ReminderRecord{}, r.failWith
	}
	rec, ok := r.reminders[id]
	if !ok {
		return model.ReminderRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepository) ListReminders(ctx context.Context, filter ReminderFilter) ([]model.ReminderRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]model.ReminderRecord, 0, len(r.reminders))
	for _, rec := range r.reminders {
		if filter.PendingOnly && !rec.Pending() {
			continue
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b model.ReminderRecord) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []model.ReminderRecord{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) MarkNotified(ctx context.Context, id int64) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	rec, ok := r.reminders[id]
	if !ok {
		return ErrNotFound
	}
	rec.Notified = true
	r.reminders[id] = rec
	return nil
}

func (r *MemoryRepository) DeleteReminder(ctx context.Context, id int64) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.reminders[id]; !ok {
		return ErrNotFound
	}
	delete(r.reminders, id)
	return nil
}
