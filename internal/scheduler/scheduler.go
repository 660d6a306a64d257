package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/storage"
)

const (
	DefaultRecentWindow = 60 * time.Second
	DefaultWakeTag      = "task-reminder-sync"
)

// Outcome describes what ScheduleDelivery did with a task.
type Outcome string

const (
	OutcomeArmed     Outcome = "armed"
	OutcomeDueNow    Outcome = "due_now"
	OutcomeMissed    Outcome = "missed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeSkipped   Outcome = "skipped"
)

// Waker asks the background context to poll soon.
type Waker interface {
	Register(ctx context.Context, tag string) error
}

type Options struct {
	RecentWindow time.Duration
	WakeTag      string
	Now          func() time.Time
	Logger       zerolog.Logger
}

// Scheduler arms foreground timers and mirrors each armed occurrence into the
// ledger so the background poller can deliver it when no page is running.
type Scheduler struct {
	engine *Engine
	ledger storage.Ledger
	waker  Waker
	window time.Duration
	tag    string
	now    func() time.Time
	log    zerolog.Logger

	mu    sync.Mutex
	armed map[int64]time.Time
}

func New(engine *Engine, ledger storage.Ledger, waker Waker, opts Options) *Scheduler {
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = DefaultRecentWindow
	}
	if opts.WakeTag == "" {
		opts.WakeTag = DefaultWakeTag
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		engine: engine,
		ledger: ledger,
		waker:  waker,
		window: opts.RecentWindow,
		tag:    opts.WakeTag,
		now:    opts.Now,
		log:    opts.Logger,
		armed:  make(map[int64]time.Time),
	}
}

// ScheduleDelivery arms a single delivery for task. Calling it again for the
// same id and time is a no-op.
func (s *Scheduler) ScheduleDelivery(ctx context.Context, task model.Task) (Outcome, error) {
	if task.Done {
		return OutcomeSkipped, nil
	}
	if err := task.Validate(); err != nil {
		return OutcomeSkipped, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if at, ok := s.armed[task.ID]; ok && at.Equal(task.Time) {
		return OutcomeDuplicate, nil
	}
	return s.arm(ctx, task, false)
}

// Reschedule replaces any armed timer for task and overwrites its ledger
// record with notified reset.
func (s *Scheduler) Reschedule(ctx context.Context, task model.Task) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Cancel(task.ID)
	delete(s.armed, task.ID)
	if task.Done {
		s.mirror(ctx, task.Record(), true)
		return OutcomeSkipped, nil
	}
	if err := task.Validate(); err != nil {
		return OutcomeSkipped, err
	}
	return s.arm(ctx, task, true)
}

// Cancel drops the timer and the ledger record for id.
func (s *Scheduler) Cancel(ctx context.Context, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Cancel(id)
	delete(s.armed, id)
	if err := s.ledger.DeleteReminder(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn().Err(err).Int64("task_id", id).Msg("delete reminder record")
	}
}

// Release forgets a fired timer so the same id can be armed again.
func (s *Scheduler) Release(ev ReminderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at, ok := s.armed[ev.TaskID]; ok && at.Equal(ev.Due) {
		delete(s.armed, ev.TaskID)
	}
}

func (s *Scheduler) Armed(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.armed[id]
	return ok
}

func (s *Scheduler) arm(ctx context.Context, task model.Task, reset bool) (Outcome, error) {
	now := s.now()
	delay := task.Time.Sub(now)
	log := s.log.With().Int64("task_id", task.ID).Time("due", task.Time).Dur("delay", delay).Logger()

	if delay < -s.window {
		s.engine.Cancel(task.ID)
		delete(s.armed, task.ID)
		log.Info().Msg("reminder missed")
		return OutcomeMissed, nil
	}

	ev := ReminderEvent{TaskID: task.ID, Name: task.Name, Due: task.Time, TriggerAt: task.Time}
	outcome := OutcomeArmed
	if delay <= 0 {
		ev.TriggerAt = now
		outcome = OutcomeDueNow
	}
	if err := s.engine.Schedule(ev); err != nil {
		return OutcomeSkipped, err
	}
	s.armed[task.ID] = task.Time
	s.mirror(ctx, task.Record(), reset)

	if outcome == OutcomeArmed && s.waker != nil {
		if err := s.waker.Register(ctx, s.tag); err != nil {
			log.Warn().Err(err).Str("tag", s.tag).Msg("register background wake")
		}
	}
	log.Debug().Str("outcome", string(outcome)).Msg("reminder scheduled")
	return outcome, nil
}

// mirror writes rec to the ledger. Without reset an existing record for the
// same occurrence keeps its notified flag.
func (s *Scheduler) mirror(ctx context.Context, rec model.ReminderRecord, reset bool) {
	if !reset {
		existing, err := s.ledger.GetReminder(ctx, rec.ID)
		if err == nil && existing.Time.Equal(rec.Time) {
			rec.Notified = existing.Notified
		}
	}
	if err := s.ledger.PutReminder(ctx, rec); err != nil {
		s.log.Warn().Err(err).Int64("task_id", rec.ID).Msg("mirror reminder record")
	}
}
