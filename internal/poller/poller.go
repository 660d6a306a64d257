// Package poller delivers due reminders from the ledger when no page holds
// a foreground timer for them.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/bridge"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/storage"
)

const (
	DefaultInterval         = 5 * time.Second
	DefaultAcceptanceWindow = 10 * time.Second
)

// Deliverer shows a reminder to the user.
type Deliverer interface {
	Deliver(ctx context.Context, rec model.ReminderRecord) error
}

// Poster forwards cross-context messages such as speech requests.
type Poster interface {
	Post(ctx context.Context, msg bridge.Message) error
}

type Options struct {
	Interval         time.Duration
	AcceptanceWindow time.Duration
	Now              func() time.Time
	Logger           zerolog.Logger
}

type Poller struct {
	ledger   storage.Ledger
	delivery Deliverer
	poster   Poster
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// Result summarises a single scan.
type Result struct {
	Delivered int
	Failed    int
	Stale     int
}

func New(ledger storage.Ledger, delivery Deliverer, poster Poster, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.AcceptanceWindow <= 0 {
		opts.AcceptanceWindow = DefaultAcceptanceWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Poller{
		ledger:   ledger,
		delivery: delivery,
		poster:   poster,
		interval: opts.Interval,
		window:   opts.AcceptanceWindow,
		now:      opts.Now,
		log:      opts.Logger,
	}
}

// PollOnce delivers every pending record that became due within the
// acceptance window. Each attempted record is marked notified even when
// delivery fails so it is never retried.
func (p *Poller) PollOnce(ctx context.Context) (Result, error) {
	var res Result
	recs, err := p.ledger.ListReminders(ctx, storage.ReminderFilter{PendingOnly: true})
	if err != nil {
		return res, err
	}

	now := p.now()
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !rec.Pending() {
			continue
		}
		overdue := rec.Overdue(now)
		log := p.log.With().Int64("reminder_id", rec.ID).Dur("overdue", overdue).Logger()
		switch {
		case overdue < 0:
			continue
		case overdue > p.window:
			res.Stale++
			log.Debug().Msg("stale reminder skipped")
			continue
		}

		if err := p.delivery.Deliver(ctx, rec); err != nil {
			res.Failed++
			log.Warn().Err(err).Msg("deliver reminder")
		} else {
			res.Delivered++
			p.speak(ctx, log, rec)
		}
		if err := p.ledger.MarkNotified(ctx, rec.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Msg("mark reminder notified")
		}
	}
	return res, nil
}

func (p *Poller) speak(ctx context.Context, log zerolog.Logger, rec model.ReminderRecord) {
	if p.poster == nil {
		return
	}
	if err := p.poster.Post(ctx, bridge.SpeakMessage(rec.Name)); err != nil {
		log.Warn().Err(err).Msg("post speech request")
	}
}

// Run polls on every wake signal and on the fallback interval until ctx ends.
func (p *Poller) Run(ctx context.Context, wake <-chan string) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.scan(ctx, "start")
	for {
		select {
		case <-ctx.Done():
			return nil
		case tag, ok := <-wake:
			if !ok {
				wake = nil
				continue
			}
			p.scan(ctx, tag)
		case <-ticker.C:
			p.scan(ctx, "interval")
		}
	}
}

func (p *Poller) scan(ctx context.Context, reason string) {
	res, err := p.PollOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn().Err(err).Str("reason", reason).Msg("poll reminders")
		}
		return
	}
	if res.Delivered+res.Failed > 0 {
		p.log.Info().
			Str("reason", reason).
			Int("delivered", res.Delivered).
			Int("failed", res.Failed).
			Int("stale", res.Stale).
			Msg("poll complete")
	}
}
