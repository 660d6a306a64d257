package bridge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	mu      sync.Mutex
	actions []model.ActionEvent
	spoken  []string
}

func (f *fakeConsumer) Apply(_ context.Context, ev model.ActionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, ev)
	return nil
}

func (f *fakeConsumer) Speak(_ context.Context, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, name)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBus(t *testing.T) (*Bus, *Mailbox, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 2, 9, 13, 0, 0, 0, time.UTC)}
	mb, err := NewMailbox(filepath.Join(t.TempDir(), "mailbox"), clk.Now, zerolog.Nop())
	require.NoError(t, err)
	return NewBus(mb, clk.Now, zerolog.Nop()), mb, clk
}

func TestMessageJSONShape(t *testing.T) {
	msg := Message{
		ID:         "abc",
		Type:       TypeSnooze,
		ReminderID: 1739098800000,
		Minutes:    5,
		CreatedAt:  time.Date(2026, 2, 9, 13, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","type":"SNOOZE","reminderId":1739098800000,"minutes":5,"createdAt":"2026-02-09T13:00:00Z"}`, string(data))
}

func TestMessageValidate(t *testing.T) {
	assert.NoError(t, Message{Type: TypeMarkDone, ReminderID: 1}.Validate())
	assert.NoError(t, SpeakMessage("Call Bob").Validate())
	assert.ErrorIs(t, Message{Type: TypeMarkDone}.Validate(), ErrMalformedMessage)
	assert.ErrorIs(t, Message{Type: TypeSpeakReminder}.Validate(), ErrMalformedMessage)
	assert.ErrorIs(t, Message{Type: "REBOOT", ReminderID: 1}.Validate(), ErrMalformedMessage)
}

func TestEmitWithoutConsumerQueues(t *testing.T) {
	bus, mb, _ := newTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Emit(ctx, model.ActionEvent{Kind: model.ActionDone, ReminderID: 7}))
	require.NoError(t, bus.Emit(ctx, model.ActionEvent{Kind: model.ActionDefault, ReminderID: 7}))

	n, err := mb.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "default actions are not queued")
}

func TestEmitWithConsumerAppliesDirectly(t *testing.T) {
	bus, mb, _ := newTestBus(t)
	consumer := &fakeConsumer{}
	bus.Attach(consumer)

	require.NoError(t, bus.Emit(context.Background(), model.ActionEvent{Kind: model.ActionSnooze, ReminderID: 3, Minutes: 5}))
	require.Len(t, consumer.actions, 1)
	assert.Equal(t, model.ActionSnooze, consumer.actions[0].Kind)

	n, err := mb.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrainAppliesOldestFirst(t *testing.T) {
	bus, _, clk := newTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Post(ctx, Message{Type: TypeSnooze, ReminderID: 1, Minutes: 10}))
	clk.Advance(time.Millisecond)
	require.NoError(t, bus.Post(ctx, Message{Type: TypeMarkDone, ReminderID: 1}))

	consumer := &fakeConsumer{}
	bus.Attach(consumer)
	applied, err := bus.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	require.Len(t, consumer.actions, 2)
	assert.Equal(t, model.ActionSnooze, consumer.actions[0].Kind)
	assert.Equal(t, 10, consumer.actions[0].Minutes)
	assert.Equal(t, model.ActionDone, consumer.actions[1].Kind)

	applied, err = bus.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied, "claimed messages are removed")
}

func TestDrainDropsStaleSpeech(t *testing.T) {
	bus, _, clk := newTestBus(t)
	ctx := context.Background()
	require.NoError(t, bus.Post(ctx, SpeakMessage("old")))
	clk.Advance(2 * time.Minute)
	require.NoError(t, bus.Post(ctx, SpeakMessage("fresh")))

	consumer := &fakeConsumer{}
	bus.Attach(consumer)
	_, err := bus.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, consumer.spoken)
}

func TestDrainDropsMalformedFiles(t *testing.T) {
	bus, mb, _ := newTestBus(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(mb.Dir(), "00000000000000000001-bad.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(mb.Dir(), "00000000000000000002-bad.json"), []byte(`{"id":"x","type":"MARK_DONE"}`), 0o644))
	require.NoError(t, bus.Post(ctx, Message{Type: TypeMarkDone, ReminderID: 9}))

	consumer := &fakeConsumer{}
	bus.Attach(consumer)
	applied, err := bus.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	n, err := mb.Len()
	require.NoError(t, err)
	assert.Zero(t, n, "malformed files are discarded")
}

func TestDrainWithoutConsumerKeepsQueue(t *testing.T) {
	bus, mb, _ := newTestBus(t)
	ctx := context.Background()
	require.NoError(t, bus.Post(ctx, Message{Type: TypeMarkDone, ReminderID: 9}))

	applied, err := bus.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)
	n, _ := mb.Len()
	assert.Equal(t, 1, n)
}

func TestPostRejectsMalformed(t *testing.T) {
	bus, _, _ := newTestBus(t)
	err := bus.Post(context.Background(), Message{Type: TypeSnooze})
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestMailboxWatchSignalsEnqueue(t *testing.T) {
	_, mb, _ := newTestBus(t)
	w, err := mb.Watch()
	require.NoError(t, err)
	defer w.Close()

	_, err = mb.Enqueue(context.Background(), Message{Type: TypeMarkDone, ReminderID: 1})
	require.NoError(t, err)

	select {
	case <-w.C():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mailbox signal")
	}
}
