// Package app wires the reminder pipeline for one foreground process.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/actions"
	"github.com/sandeepkv93/remindd/internal/bridge"
	"github.com/sandeepkv93/remindd/internal/config"
	"github.com/sandeepkv93/remindd/internal/fswatch"
	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/notify"
	"github.com/sandeepkv93/remindd/internal/scheduler"
	"github.com/sandeepkv93/remindd/internal/storage"
)

const (
	eventBufferSize = 128
	testDelay       = 10 * time.Second
)

type EventKind string

const (
	EventAlert   EventKind = "alert"
	EventChanged EventKind = "changed"
	EventFocus   EventKind = "focus"
)

// Event is what the page renders.
type Event struct {
	Kind  EventKind
	Task  model.Task
	Tasks []model.Task
}

type Deps struct {
	Repo     storage.Repository
	Mailbox  *bridge.Mailbox
	Notifier notify.Notifier
	Speaker  notify.Speaker
	Waker    scheduler.Waker
	Now      func() time.Time
	Logger   zerolog.Logger
}

// App owns the foreground components. Create it with New, call Start once,
// drive it with Run and release it with Close.
type App struct {
	cfg     config.Config
	baseLog zerolog.Logger
	log     zerolog.Logger
	now     func() time.Time

	repo     storage.Repository
	engine   *scheduler.Engine
	sched    *scheduler.Scheduler
	router   *actions.Router
	mailbox  *bridge.Mailbox
	bus      *bridge.Bus
	delivery *notify.Delivery
	speaker  notify.Speaker

	events chan Event

	mu        sync.Mutex
	watcher   *fswatch.Watcher
	started   bool
	closeOnce sync.Once
}

func New(cfg config.Config, deps Deps) (*App, error) {
	if deps.Repo == nil {
		return nil, errors.New("app: repository is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Speaker == nil || !cfg.Notifications.Speech {
		deps.Speaker = notify.NoopSpeaker{}
	}
	if deps.Notifier == nil || !cfg.Notifications.Enabled {
		deps.Notifier = notify.NoopNotifier{}
	}
	log := deps.Logger

	a := &App{
		cfg:     cfg,
		baseLog: log,
		log:     logging.Component(log, "app"),
		now:     deps.Now,
		repo:    deps.Repo,
		mailbox: deps.Mailbox,
		speaker: deps.Speaker,
		events:  make(chan Event, eventBufferSize),
	}

	a.engine = scheduler.NewEngine(cfg.Schedule.EngineBuffer)
	a.sched = scheduler.New(a.engine, deps.Repo, deps.Waker, scheduler.Options{
		RecentWindow: cfg.Schedule.RecentWindow,
		WakeTag:      cfg.Schedule.WakeTag,
		Now:          deps.Now,
		Logger:       logging.Component(log, "scheduler"),
	})
	a.router = actions.New(deps.Repo, deps.Repo, a.sched, actions.Options{
		Now:    deps.Now,
		Logger: logging.Component(log, "actions"),
		Hooks: actions.Hooks{
			OnChange: func(tasks []model.Task) { a.emit(Event{Kind: EventChanged, Tasks: tasks}) },
			OnFocus:  a.focus,
		},
	})
	a.bus = bridge.NewBus(deps.Mailbox, deps.Now, logging.Component(log, "bus"))
	a.delivery = notify.NewDelivery(deps.Notifier, a.bus, notify.DeliveryOptions{
		AppURL:        cfg.AppURL,
		SnoozeMinutes: cfg.Notifications.SnoozeMinutes,
		ActionTimeout: cfg.Poll.ActionTimeout,
		Logger:        logging.Component(log, "notify"),
	})
	return a, nil
}

func (a *App) Router() *actions.Router         { return a.router }
func (a *App) Bus() *bridge.Bus                { return a.bus }
func (a *App) Delivery() *notify.Delivery      { return a.delivery }
func (a *App) Scheduler() *scheduler.Scheduler { return a.sched }
func (a *App) Events() <-chan Event            { return a.events }

// Start attaches the page, drains queued messages and reconciles the task
// list with the ledger and the timers.
func (a *App) Start(ctx context.Context) (actions.Report, error) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return actions.Report{}, errors.New("app: already started")
	}
	a.started = true
	a.mu.Unlock()

	a.engine.Start()
	a.bus.Attach(a)

	if a.mailbox != nil {
		w, err := a.mailbox.Watch()
		if err != nil {
			a.log.Warn().Err(err).Msg("watch mailbox")
		} else {
			a.mu.Lock()
			a.watcher = w
			a.mu.Unlock()
		}
	}

	rep, err := a.router.Reconcile(ctx, a.bus.Drain)
	if err != nil {
		return rep, fmt.Errorf("reconcile: %w", err)
	}
	a.emit(Event{Kind: EventChanged, Tasks: a.router.Tasks()})
	return rep, nil
}

// Run fires due timers and drains the mailbox until ctx ends.
func (a *App) Run(ctx context.Context) error {
	var mailbox <-chan string
	a.mu.Lock()
	if a.watcher != nil {
		mailbox = a.watcher.C()
	}
	a.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-a.engine.C():
			if !ok {
				return nil
			}
			a.fire(ctx, ev)
		case _, ok := <-mailbox:
			if !ok {
				mailbox = nil
				continue
			}
			if n, err := a.bus.Drain(ctx); err != nil {
				a.log.Warn().Err(err).Msg("drain mailbox")
			} else if n > 0 {
				a.log.Debug().Int("applied", n).Msg("drained mailbox")
			}
		}
	}
}

// Close detaches the page so later messages queue in the mailbox.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.bus.Detach()
		a.engine.Stop()
		a.mu.Lock()
		if a.watcher != nil {
			err = a.watcher.Close()
		}
		a.mu.Unlock()
		a.delivery.Close()
	})
	return err
}

// Apply implements bridge.Consumer.
func (a *App) Apply(ctx context.Context, ev model.ActionEvent) error {
	err := a.router.Apply(ctx, ev)
	if errors.Is(err, actions.ErrTaskNotFound) {
		a.log.Info().Int64("reminder_id", ev.ReminderID).Str("action", string(ev.Kind)).Msg("action for unknown task ignored")
		return nil
	}
	return err
}

// Speak implements bridge.Consumer.
func (a *App) Speak(ctx context.Context, taskName string) {
	go func() {
		if err := a.speaker.Speak(context.WithoutCancel(ctx), taskName); err != nil {
			a.log.Debug().Err(err).Msg("speak reminder")
		}
	}()
}

// TestReminder creates a throwaway reminder a few seconds out and shows a
// plain notification so the user can check permissions.
func (a *App) TestReminder(ctx context.Context) (model.Task, error) {
	if err := a.delivery.ShowTest(ctx, a.now()); err != nil {
		a.log.Warn().Err(err).Msg("show test notification")
	}
	a.Speak(ctx, "Test reminder")
	return a.router.Create(ctx, "Test reminder", a.now().Add(testDelay), model.RepeatNever)
}

// fire handles a foreground timer. The ledger's notified flag decides
// whether the background already showed the system notification.
func (a *App) fire(ctx context.Context, ev scheduler.ReminderEvent) {
	a.sched.Release(ev)
	log := a.log.With().Int64("task_id", ev.TaskID).Time("due", ev.Due).Logger()

	task, ok := a.router.Task(ev.TaskID)
	switch {
	case !ok:
		log.Debug().Msg("timer for deleted task ignored")
		return
	case task.Done:
		log.Debug().Msg("timer for done task ignored")
		return
	case !task.Time.Equal(ev.Due):
		log.Debug().Time("current_due", task.Time).Msg("timer for moved task ignored")
		return
	}

	a.emit(Event{Kind: EventAlert, Task: task})
	a.Speak(ctx, task.Name)

	rec, err := a.repo.GetReminder(ctx, task.ID)
	delivered := err == nil && rec.Notified && rec.Time.Equal(task.Time)

	// The occurrence is completed and marked notified before the
	// notification can be answered.
	if _, err := a.router.Complete(ctx, task.ID); err != nil {
		log.Warn().Err(err).Msg("complete fired task")
	}

	if delivered {
		log.Info().Msg("already delivered in background")
		return
	}
	if err := a.repo.MarkNotified(ctx, task.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Warn().Err(err).Msg("mark notified")
	}
	if err := a.delivery.Deliver(ctx, task.Record()); err != nil {
		log.Warn().Err(err).Msg("system notification unavailable")
	}
}

func (a *App) focus(id int64) {
	task, _ := a.router.Task(id)
	a.emit(Event{Kind: EventFocus, Task: task})
}

func (a *App) emit(ev Event) {
	select {
	case a.events <- ev:
	default:
		a.log.Warn().Str("kind", string(ev.Kind)).Msg("page event dropped")
	}
}
