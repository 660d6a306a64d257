// Package actions owns every mutation of the task list: user edits,
// notification actions and launch reconciliation.
package actions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/scheduler"
	"github.com/sandeepkv93/remindd/internal/storage"
)

var ErrTaskNotFound = errors.New("actions: task not found")

// Scheduler is the part of scheduler.Scheduler the router drives.
type Scheduler interface {
	ScheduleDelivery(ctx context.Context, task model.Task) (scheduler.Outcome, error)
	Reschedule(ctx context.Context, task model.Task) (scheduler.Outcome, error)
	Cancel(ctx context.Context, id int64)
}

type Hooks struct {
	// OnChange receives a copy of the task list after every persisted change.
	OnChange func(tasks []model.Task)
	// OnFocus is called for the default notification action.
	OnFocus func(id int64)
}

type Options struct {
	Now    func() time.Time
	IDs    *model.IDSource
	Hooks  Hooks
	Logger zerolog.Logger
}

type Router struct {
	store  storage.TaskStore
	ledger storage.Ledger
	sched  Scheduler
	ids    *model.IDSource
	now    func() time.Time
	hooks  Hooks
	log    zerolog.Logger

	mu    sync.Mutex
	tasks []model.Task
}

func New(store storage.TaskStore, ledger storage.Ledger, sched Scheduler, opts Options) *Router {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = model.NewIDSource(opts.Now)
	}
	return &Router{
		store:  store,
		ledger: ledger,
		sched:  sched,
		ids:    opts.IDs,
		now:    opts.Now,
		hooks:  opts.Hooks,
		log:    opts.Logger,
	}
}

// SetHooks replaces the change and focus callbacks.
func (r *Router) SetHooks(h Hooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = h
}

// Tasks returns a copy of the last loaded task list.
func (r *Router) Tasks() []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.tasks)
}

func (r *Router) Task(id int64) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := model.IndexOf(r.tasks, id); i >= 0 {
		return r.tasks[i], true
	}
	return model.Task{}, false
}

// Apply handles an action coming from a notification or a queued message.
func (r *Router) Apply(ctx context.Context, ev model.ActionEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	switch ev.Kind {
	case model.ActionDone:
		_, err := r.Complete(ctx, ev.ReminderID)
		return err
	case model.ActionSnooze:
		_, err := r.Snooze(ctx, ev.ReminderID, ev.SnoozeMinutes())
		return err
	default:
		r.mu.Lock()
		focus := r.hooks.OnFocus
		r.mu.Unlock()
		if focus != nil {
			focus(ev.ReminderID)
		}
		return nil
	}
}

func (r *Router) Create(ctx context.Context, name string, at time.Time, repeat model.Repeat) (model.Task, error) {
	task := model.Task{
		Name:   strings.TrimSpace(name),
		Time:   at,
		Repeat: repeat,
	}
	if task.Repeat == "" {
		task.Repeat = model.RepeatNever
	}

	var created model.Task
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, []model.Task, error) {
		task.ID = r.ids.Next()
		if err := task.Validate(); err != nil {
			return nil, nil, err
		}
		created = task
		return append(tasks, task), []model.Task{task}, nil
	}, false)
	if err != nil {
		return model.Task{}, err
	}
	r.log.Info().Int64("task_id", created.ID).Str("name", created.Name).Time("due", created.Time).Msg("task created")
	return r.current(created.ID, created), nil
}

// Edit replaces name, time and repeat of a task and reschedules it.
func (r *Router) Edit(ctx context.Context, id int64, name string, at time.Time, repeat model.Repeat) (model.Task, error) {
	var edited model.Task
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, []model.Task, error) {
		i := model.IndexOf(tasks, id)
		if i < 0 {
			return nil, nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
		t := tasks[i]
		t.Name = strings.TrimSpace(name)
		t.Time = at
		t.Repeat = repeat
		t.Scheduled = false
		if err := t.Validate(); err != nil {
			return nil, nil, err
		}
		tasks[i] = t
		edited = t
		return tasks, []model.Task{t}, nil
	}, true)
	if err != nil {
		return model.Task{}, err
	}
	return r.current(id, edited), nil
}

func (r *Router) Delete(ctx context.Context, id int64) error {
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, []model.Task, error) {
		i := model.IndexOf(tasks, id)
		if i < 0 {
			return nil, nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
		return slices.Delete(tasks, i, i+1), nil, nil
	}, false)
	if err != nil {
		return err
	}
	r.sched.Cancel(ctx, id)
	r.log.Info().Int64("task_id", id).Msg("task deleted")
	return nil
}

// Toggle flips done. Completing spawns the next occurrence of a repeating
// task; reopening reschedules the task.
func (r *Router) Toggle(ctx context.Context, id int64) (model.Task, error) {
	task, ok := r.Task(id)
	if !ok {
		if err := r.reload(ctx); err != nil {
			return model.Task{}, err
		}
		if task, ok = r.Task(id); !ok {
			return model.Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
	}
	if !task.Done {
		if _, err := r.Complete(ctx, id); err != nil {
			return model.Task{}, err
		}
		return r.current(id, task), nil
	}

	var reopened model.Task
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, []model.Task, error) {
		i := model.IndexOf(tasks, id)
		if i < 0 {
			return nil, nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
		tasks[i].Done = false
		tasks[i].Scheduled = false
		reopened = tasks[i]
		return tasks, []model.Task{tasks[i]}, nil
	}, true)
	if err != nil {
		return model.Task{}, err
	}
	return r.current(id, reopened), nil
}

// Complete marks a task done and, for repeating tasks, appends the next
// occurrence. Completing a task that is already done does nothing and
// returns a nil next task.
func (r *Router) Complete(ctx context.Context, id int64) (*model.Task, error) {
	var (
		done model.Task
		next *model.Task
		noop bool
	)
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, []model.Task, error) {
		i := model.IndexOf(tasks, id)
		if i < 0 {
			return nil, nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
		if tasks[i].Done {
			noop = true
			return nil, nil, nil
		}
		tasks[i].Done = true
		done = tasks[i]
		if !done.Repeat.Recurring() {
			return tasks, nil, nil
		}
		spawned, err := model.NextTask(done, r.ids.Next(), r.now())
		if err != nil {
			return nil, nil, err
		}
		next = &spawned
		return append(tasks, spawned), []model.Task{spawned}, nil
	}, false)
	if err != nil || noop {
		return nil, err
	}

	if _, err := r.sched.Reschedule(ctx, done); err != nil {
		r.log.Warn().Err(err).Int64("task_id", id).Msg("record completion")
	}
	log := r.log.Info().Int64("task_id", id)
	if next != nil {
		current := r.current(next.ID, *next)
		next = &current
		log = log.Int64("next_id", next.ID).Time("next_due", next.Time)
	}
	log.Msg("task completed")
	return next, nil
}

// Snooze moves a task to now+minutes, reopening it if needed.
func (r *Router) Snooze(ctx context.Context, id int64, minutes int) (model.Task, error) {
	if minutes <= 0 {
		minutes = model.DefaultSnoozeMinutes
	}
	var snoozed model.Task
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, []model.Task, error) {
		i := model.IndexOf(tasks, id)
		if i < 0 {
			return nil, nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
		tasks[i].Time = r.now().Add(time.Duration(minutes) * time.Minute)
		tasks[i].Done = false
		tasks[i].Scheduled = false
		snoozed = tasks[i]
		return tasks, []model.Task{tasks[i]}, nil
	}, true)
	if err != nil {
		return model.Task{}, err
	}
	r.log.Info().Int64("task_id", id).Int("minutes", minutes).Time("due", snoozed.Time).Msg("task snoozed")
	return r.current(id, snoozed), nil
}

// Load reads the task list into memory without side effects.
func (r *Router) Load(ctx context.Context) error {
	return r.reload(ctx)
}

func (r *Router) reload(ctx context.Context) error {
	tasks, err := r.store.LoadTasks(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = tasks
	for _, t := range tasks {
		r.ids.Observe(t.ID)
	}
	return nil
}

type mutation func(tasks []model.Task) (out []model.Task, schedule []model.Task, err error)

// mutate runs a load-modify-save cycle under the router lock, then arms the
// returned tasks. A nil out list without error leaves the store untouched.
// When the store fails nothing changes in memory.
func (r *Router) mutate(ctx context.Context, fn mutation, reset bool, observe ...func(scheduler.Outcome)) error {
	r.mu.Lock()
	tasks, err := r.store.LoadTasks(ctx)
	if err != nil {
		r.mu.Unlock()
		r.log.Warn().Err(err).Msg("load tasks")
		return err
	}
	for _, t := range tasks {
		r.ids.Observe(t.ID)
	}

	out, toSchedule, err := fn(tasks)
	if err != nil || out == nil {
		r.tasks = tasks
		r.mu.Unlock()
		return err
	}
	if err := r.store.SaveTasks(ctx, out); err != nil {
		r.mu.Unlock()
		r.log.Warn().Err(err).Msg("save tasks")
		return err
	}
	r.tasks = out

	armed := r.scheduleLocked(ctx, toSchedule, reset, observe)
	if len(armed) > 0 {
		r.markScheduledLocked(ctx, armed)
	}
	snapshot := slices.Clone(r.tasks)
	onChange := r.hooks.OnChange
	r.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
	return nil
}

func (r *Router) scheduleLocked(ctx context.Context, tasks []model.Task, reset bool, observe []func(scheduler.Outcome)) []int64 {
	armed := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		var (
			outcome scheduler.Outcome
			err     error
		)
		if reset {
			outcome, err = r.sched.Reschedule(ctx, t)
		} else {
			outcome, err = r.sched.ScheduleDelivery(ctx, t)
		}
		if err != nil {
			r.log.Warn().Err(err).Int64("task_id", t.ID).Msg("schedule task")
			continue
		}
		for _, fn := range observe {
			fn(outcome)
		}
		switch outcome {
		case scheduler.OutcomeArmed, scheduler.OutcomeDueNow, scheduler.OutcomeDuplicate:
			armed = append(armed, t.ID)
		}
	}
	return armed
}

func (r *Router) markScheduledLocked(ctx context.Context, ids []int64) {
	changed := false
	for _, id := range ids {
		if i := model.IndexOf(r.tasks, id); i >= 0 && !r.tasks[i].Scheduled {
			r.tasks[i].Scheduled = true
			changed = true
		}
	}
	if !changed {
		return
	}
	if err := r.store.SaveTasks(ctx, r.tasks); err != nil {
		r.log.Warn().Err(err).Msg("save scheduled flags")
	}
}

func (r *Router) current(id int64, fallback model.Task) model.Task {
	if t, ok := r.Task(id); ok {
		return t
	}
	return fallback
}
