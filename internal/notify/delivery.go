package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/model"
)

const DefaultActionTimeout = 2 * time.Minute

// Sink receives the action a user picked on a notification.
type Sink interface {
	Emit(ctx context.Context, ev model.ActionEvent) error
}

type DeliveryOptions struct {
	AppURL        string
	SnoozeMinutes int
	ActionTimeout time.Duration
	Logger        zerolog.Logger
}

// Delivery shows reminder notifications and turns user interaction into
// action events. Failures are logged and never reach the caller's control
// flow beyond the returned error.
type Delivery struct {
	notifier Notifier
	sink     Sink
	opts     DeliveryOptions
	log      zerolog.Logger

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDelivery(notifier Notifier, sink Sink, opts DeliveryOptions) *Delivery {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if opts.SnoozeMinutes <= 0 {
		opts.SnoozeMinutes = model.DefaultSnoozeMinutes
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	base, cancel := context.WithCancel(context.Background())
	return &Delivery{
		notifier: notifier,
		sink:     sink,
		opts:     opts,
		log:      opts.Logger,
		base:     base,
		cancel:   cancel,
	}
}

// Deliver shows the notification for rec and returns once it is on screen.
// The user's answer is handled in the background.
func (d *Delivery) Deliver(ctx context.Context, rec model.ReminderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n := ForReminder(rec, d.opts.AppURL, d.opts.SnoozeMinutes)
	log := d.log.With().Int64("reminder_id", rec.ID).Str("tag", n.Tag).Logger()

	waitCtx, cancel := context.WithTimeout(d.base, d.opts.ActionTimeout)
	answers, err := d.notifier.Show(waitCtx, n)
	if err != nil {
		cancel()
		log.Warn().Err(err).Msg("show notification")
		return err
	}
	log.Info().Str("name", rec.Name).Msg("notification shown")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		var action string
		select {
		case action = <-answers:
		case <-waitCtx.Done():
			log.Debug().Msg("notification left unanswered")
			return
		}
		d.handleAction(log, rec, action)
	}()
	return nil
}

func (d *Delivery) handleAction(log zerolog.Logger, rec model.ReminderRecord, action string) {
	ev, ok := model.ActionFromNotification(action, rec.ID, d.opts.SnoozeMinutes)
	if !ok {
		log.Debug().Msg("notification dismissed")
		return
	}
	log.Info().Str("action", string(ev.Kind)).Msg("notification action")

	if ev.Kind == model.ActionSnooze {
		if _, err := d.notifier.Show(d.base, SnoozeConfirmation(ev.SnoozeMinutes())); err != nil {
			log.Warn().Err(err).Msg("show snooze confirmation")
		}
	}
	if d.sink == nil {
		return
	}
	if err := d.sink.Emit(d.base, ev); err != nil {
		log.Warn().Err(err).Msg("emit notification action")
	}
}

// ShowTest displays a plain notification without actions.
func (d *Delivery) ShowTest(ctx context.Context, at time.Time) error {
	_, err := d.notifier.Show(ctx, TestNotification(at))
	return err
}

// Wait blocks until every pending notification has been answered or timed out.
func (d *Delivery) Wait() {
	d.wg.Wait()
}

// Close abandons pending notifications and waits for their handlers.
func (d *Delivery) Close() {
	d.cancel()
	d.wg.Wait()
}
