package actions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/scheduler"
	"github.com/sandeepkv93/remindd/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *Router
	repo   *storage.MemoryRepository
	engine *scheduler.Engine
	sched  *scheduler.Scheduler
	now    time.Time

	mu      sync.Mutex
	changes int
	focused []int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   storage.NewMemoryRepository(),
		engine: scheduler.NewEngine(16),
		now:    time.Now().Truncate(time.Second),
	}
	clock := func() time.Time { return f.now }
	f.engine.Start()
	t.Cleanup(f.engine.Stop)
	f.sched = scheduler.New(f.engine, f.repo, nil, scheduler.Options{Now: clock, Logger: zerolog.Nop()})
	f.router = New(f.repo, f.repo, f.sched, Options{
		Now:    clock,
		Logger: zerolog.Nop(),
		Hooks: Hooks{
			OnChange: func([]model.Task) {
				f.mu.Lock()
				defer f.mu.Unlock()
				f.changes++
			},
			OnFocus: func(id int64) {
				f.mu.Lock()
				defer f.mu.Unlock()
				f.focused = append(f.focused, id)
			},
		},
	})
	return f
}

func (f *fixture) seed(t *testing.T, tasks ...model.Task) {
	t.Helper()
	require.NoError(t, f.repo.SaveTasks(context.Background(), tasks))
	require.NoError(t, f.router.Load(context.Background()))
}

func (f *fixture) stored(t *testing.T) []model.Task {
	t.Helper()
	tasks, err := f.repo.LoadTasks(context.Background())
	require.NoError(t, err)
	return tasks
}

func TestCreateArmsAndMirrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.router.Create(ctx, "  Call Bob ", f.now.Add(time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, "Call Bob", task.Name)
	assert.Equal(t, model.RepeatNever, task.Repeat)
	assert.True(t, task.Scheduled)

	_, ok := f.engine.Pending(task.ID)
	assert.True(t, ok)
	rec, err := f.repo.GetReminder(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, rec.Matches(task))

	stored := f.stored(t)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Scheduled)
	assert.Equal(t, 1, f.changes)
}

func TestCreateRejectsInvalidTask(t *testing.T) {
	f := newFixture(t)
	_, err := f.router.Create(context.Background(), " ", f.now, model.RepeatNever)
	assert.ErrorIs(t, err, model.ErrInvalidTask)
	assert.Empty(t, f.stored(t))
}

func TestCompleteSpawnsNextOccurrenceOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := f.now.Add(-time.Minute).Add(-25 * time.Hour)
	f.seed(t, model.Task{ID: 1, Name: "Stretch", Time: due, Repeat: model.RepeatDaily})

	next, err := f.router.Complete(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.NotEqual(t, int64(1), next.ID)
	assert.Equal(t, "Stretch", next.Name)
	assert.Equal(t, due.Hour(), next.Time.Hour())
	assert.Equal(t, due.Minute(), next.Time.Minute())
	assert.True(t, next.Time.After(f.now))
	assert.True(t, next.Scheduled)

	again, err := f.router.Complete(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, again)

	stored := f.stored(t)
	require.Len(t, stored, 2)
	assert.True(t, stored[0].Done)
	assert.False(t, stored[1].Done)

	rec, err := f.repo.GetReminder(ctx, 1)
	require.NoError(t, err)
	assert.True(t, rec.Done)
}

func TestCompleteMissingTask(t *testing.T) {
	f := newFixture(t)
	_, err := f.router.Complete(context.Background(), 99)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSnoozeRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, model.Task{ID: 1, Name: "Call Bob", Time: f.now.Add(-2 * time.Minute), Done: true, Repeat: model.RepeatNever})
	require.NoError(t, f.repo.PutReminder(ctx, model.ReminderRecord{ID: 1, Name: "Call Bob", Time: f.now.Add(-2 * time.Minute), Notified: true}))

	task, err := f.router.Snooze(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(5*time.Minute), task.Time)
	assert.False(t, task.Done)
	assert.True(t, task.Scheduled)

	ev, ok := f.engine.Pending(1)
	require.True(t, ok)
	assert.True(t, ev.Due.Equal(task.Time))

	rec, err := f.repo.GetReminder(ctx, 1)
	require.NoError(t, err)
	assert.False(t, rec.Notified)
	assert.True(t, rec.Time.Equal(task.Time))
}

func TestDeleteCancelsTimerAndRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.router.Create(ctx, "Call Bob", f.now.Add(time.Hour), model.RepeatNever)
	require.NoError(t, err)

	require.NoError(t, f.router.Delete(ctx, task.ID))
	assert.Zero(t, f.engine.Len())
	_, err = f.repo.GetReminder(ctx, task.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, f.router.Tasks())

	assert.ErrorIs(t, f.router.Delete(ctx, task.ID), ErrTaskNotFound)
}

func TestToggleReopensAndReschedules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, model.Task{ID: 1, Name: "Call Bob", Time: f.now.Add(time.Hour), Done: true, Repeat: model.RepeatNever})

	task, err := f.router.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.False(t, task.Done)
	_, ok := f.engine.Pending(1)
	assert.True(t, ok)

	task, err = f.router.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.True(t, task.Done)
	assert.Zero(t, f.engine.Len())
}

func TestEditReschedules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.router.Create(ctx, "Call Bob", f.now.Add(time.Hour), model.RepeatNever)
	require.NoError(t, err)

	edited, err := f.router.Edit(ctx, task.ID, "Call Alice", f.now.Add(2*time.Hour), model.RepeatWeekly)
	require.NoError(t, err)
	assert.Equal(t, "Call Alice", edited.Name)
	assert.Equal(t, model.RepeatWeekly, edited.Repeat)

	ev, ok := f.engine.Pending(task.ID)
	require.True(t, ok)
	assert.True(t, ev.Due.Equal(f.now.Add(2*time.Hour)))
	assert.Equal(t, 1, f.engine.Len())
}

func TestApplyRoutesActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, model.Task{ID: 1, Name: "Call Bob", Time: f.now.Add(time.Hour), Repeat: model.RepeatNever})

	require.NoError(t, f.router.Apply(ctx, model.ActionEvent{Kind: model.ActionDefault, ReminderID: 1}))
	assert.Equal(t, []int64{1}, f.focused)

	require.NoError(t, f.router.Apply(ctx, model.ActionEvent{Kind: model.ActionSnooze, ReminderID: 1}))
	task, _ := f.router.Task(1)
	assert.Equal(t, f.now.Add(5*time.Minute), task.Time)

	require.NoError(t, f.router.Apply(ctx, model.ActionEvent{Kind: model.ActionDone, ReminderID: 1}))
	task, _ = f.router.Task(1)
	assert.True(t, task.Done)

	assert.ErrorIs(t, f.router.Apply(ctx, model.ActionEvent{Kind: model.ActionDone}), model.ErrMalformedAction)
}

func TestStoreUnavailableIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, model.Task{ID: 1, Name: "Call Bob", Time: f.now.Add(time.Hour), Repeat: model.RepeatNever})

	f.repo.FailWith(storage.ErrUnavailable)
	_, err := f.router.Snooze(ctx, 1, 5)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	f.repo.FailWith(nil)

	task, _ := f.router.Task(1)
	assert.Equal(t, f.now.Add(time.Hour), task.Time)
	assert.Zero(t, f.engine.Len())
}
