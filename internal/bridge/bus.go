package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/model"
)

const DefaultSpeechMaxAge = time.Minute

// Consumer is the attached page.
type Consumer interface {
	Apply(ctx context.Context, ev model.ActionEvent) error
	Speak(ctx context.Context, taskName string)
}

// Bus routes actions and messages to the attached consumer, or to the
// mailbox while no consumer is attached.
type Bus struct {
	mailbox      *Mailbox
	speechMaxAge time.Duration
	now          func() time.Time
	log          zerolog.Logger

	mu       sync.RWMutex
	consumer Consumer
}

func NewBus(mailbox *Mailbox, now func() time.Time, log zerolog.Logger) *Bus {
	if now == nil {
		now = time.Now
	}
	return &Bus{
		mailbox:      mailbox,
		speechMaxAge: DefaultSpeechMaxAge,
		now:          now,
		log:          log,
	}
}

func (b *Bus) Attach(c Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumer = c
}

func (b *Bus) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumer = nil
}

func (b *Bus) Attached() bool {
	return b.current() != nil
}

func (b *Bus) current() Consumer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.consumer
}

// Emit delivers a notification action.
func (b *Bus) Emit(ctx context.Context, ev model.ActionEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if c := b.current(); c != nil {
		return c.Apply(ctx, ev)
	}
	msg, ok := FromAction(ev)
	if !ok {
		b.log.Info().Str("action", string(ev.Kind)).Int64("reminder_id", ev.ReminderID).Msg("no page attached, action ignored")
		return nil
	}
	return b.enqueue(ctx, msg)
}

// Post sends msg directly when a consumer is attached and queues it otherwise.
func (b *Bus) Post(ctx context.Context, msg Message) error {
	msg = msg.stamped(b.now())
	if err := msg.Validate(); err != nil {
		b.log.Warn().Err(err).Msg("dropping malformed message")
		return err
	}
	if c := b.current(); c != nil {
		return b.dispatch(ctx, c, msg)
	}
	return b.enqueue(ctx, msg)
}

// Drain applies every queued message to the attached consumer, oldest first,
// and returns how many were applied.
func (b *Bus) Drain(ctx context.Context) (int, error) {
	c := b.current()
	if c == nil {
		return 0, nil
	}
	msgs, err := b.mailbox.Claim(ctx)
	if err != nil {
		return 0, err
	}
	applied := 0
	now := b.now()
	for _, msg := range msgs {
		if msg.Type == TypeSpeakReminder && now.Sub(msg.CreatedAt) > b.speechMaxAge {
			b.log.Debug().Str("id", msg.ID).Msg("dropping stale speech message")
			continue
		}
		if err := b.dispatch(ctx, c, msg); err != nil {
			b.log.Warn().Err(err).Str("id", msg.ID).Str("type", string(msg.Type)).Msg("apply queued message")
			continue
		}
		applied++
	}
	return applied, nil
}

func (b *Bus) dispatch(ctx context.Context, c Consumer, msg Message) error {
	if msg.Type == TypeSpeakReminder {
		c.Speak(ctx, msg.TaskName)
		return nil
	}
	ev, _ := msg.Action()
	return c.Apply(ctx, ev)
}

func (b *Bus) enqueue(ctx context.Context, msg Message) error {
	if b.mailbox == nil {
		b.log.Warn().Str("type", string(msg.Type)).Msg("no mailbox, message dropped")
		return nil
	}
	stored, err := b.mailbox.Enqueue(ctx, msg)
	if err != nil {
		return err
	}
	b.log.Debug().Str("id", stored.ID).Str("type", string(stored.Type)).Msg("message queued")
	return nil
}
