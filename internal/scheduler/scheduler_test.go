package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/storage"
)

type recordingWaker struct {
	mu   sync.Mutex
	tags []string
}

func (w *recordingWaker) Register(_ context.Context, tag string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tags = append(w.tags, tag)
	return nil
}

func (w *recordingWaker) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tags)
}

func newTestScheduler(t *testing.T, now time.Time) (*Scheduler, *Engine, *storage.MemoryRepository, *recordingWaker) {
	t.Helper()
	engine := NewEngine(8)
	engine.Start()
	t.Cleanup(engine.Stop)
	repo := storage.NewMemoryRepository()
	waker := &recordingWaker{}
	s := New(engine, repo, waker, Options{
		Now:    func() time.Time { return now },
		Logger: zerolog.Nop(),
	})
	return s, engine, repo, waker
}

func TestScheduleDeliveryArmsFutureTask(t *testing.T) {
	now := time.Now()
	s, engine, repo, waker := newTestScheduler(t, now)
	task := model.Task{ID: 1, Name: "Call Bob", Time: now.Add(time.Hour), Repeat: model.RepeatNever}

	outcome, err := s.ScheduleDelivery(context.Background(), task)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if outcome != OutcomeArmed {
		t.Fatalf("expected armed, got %s", outcome)
	}
	if _, ok := engine.Pending(1); !ok {
		t.Fatal("expected pending timer")
	}
	rec, err := repo.GetReminder(context.Background(), 1)
	if err != nil {
		t.Fatalf("get reminder: %v", err)
	}
	if rec.Notified || !rec.Time.Equal(task.Time) {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if waker.count() != 1 {
		t.Fatalf("expected one wake request, got %d", waker.count())
	}
}

func TestScheduleDeliveryIsIdempotent(t *testing.T) {
	now := time.Now()
	s, engine, repo, waker := newTestScheduler(t, now)
	task := model.Task{ID: 1, Name: "Call Bob", Time: now.Add(time.Hour), Repeat: model.RepeatNever}
	ctx := context.Background()

	if _, err := s.ScheduleDelivery(ctx, task); err != nil {
		t.Fatalf("first schedule: %v", err)
	}
	outcome, err := s.ScheduleDelivery(ctx, task)
	if err != nil {
		t.Fatalf("second schedule: %v", err)
	}
	if outcome != OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s", outcome)
	}
	if engine.Len() != 1 {
		t.Fatalf("expected one timer, got %d", engine.Len())
	}
	recs, _ := repo.ListReminders(ctx, storage.ReminderFilter{})
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	if waker.count() != 1 {
		t.Fatalf("expected one wake request, got %d", waker.count())
	}
}

func TestScheduleDeliveryDueNowFiresImmediately(t *testing.T) {
	now := time.Now()
	s, engine, repo, _ := newTestScheduler(t, now)
	task := model.Task{ID: 2, Name: "Stand up", Time: now.Add(-5 * time.Second), Repeat: model.RepeatNever}

	outcome, err := s.ScheduleDelivery(context.Background(), task)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if outcome != OutcomeDueNow {
		t.Fatalf("expected due_now, got %s", outcome)
	}
	ev := waitEvent(t, engine.C(), time.Second)
	if ev.TaskID != 2 || !ev.Due.Equal(task.Time) {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if _, err := repo.GetReminder(context.Background(), 2); err != nil {
		t.Fatalf("expected mirrored record: %v", err)
	}
}

func TestScheduleDeliveryMissed(t *testing.T) {
	now := time.Now()
	s, engine, repo, _ := newTestScheduler(t, now)
	task := model.Task{ID: 3, Name: "Old", Time: now.Add(-61 * time.Second), Repeat: model.RepeatNever}

	outcome, err := s.ScheduleDelivery(context.Background(), task)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if outcome != OutcomeMissed {
		t.Fatalf("expected missed, got %s", outcome)
	}
	if engine.Len() != 0 {
		t.Fatalf("missed task must not arm a timer")
	}
	if _, err := repo.GetReminder(context.Background(), 3); err == nil {
		t.Fatal("missed task must not be mirrored")
	}
}

func TestScheduleDeliverySkipsDoneTask(t *testing.T) {
	now := time.Now()
	s, engine, _, _ := newTestScheduler(t, now)
	task := model.Task{ID: 4, Name: "Done", Time: now.Add(time.Hour), Done: true, Repeat: model.RepeatNever}
	outcome, err := s.ScheduleDelivery(context.Background(), task)
	if err != nil || outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %s %v", outcome, err)
	}
	if engine.Len() != 0 {
		t.Fatal("done task must not arm a timer")
	}
}

func TestScheduleDeliveryKeepsNotifiedFlag(t *testing.T) {
	now := time.Now()
	s, _, repo, _ := newTestScheduler(t, now)
	ctx := context.Background()
	task := model.Task{ID: 5, Name: "Call Bob", Time: now.Add(-2 * time.Second), Repeat: model.RepeatNever}
	rec := task.Record()
	rec.Notified = true
	if err := repo.PutReminder(ctx, rec); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	if _, err := s.ScheduleDelivery(ctx, task); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	got, _ := repo.GetReminder(ctx, 5)
	if !got.Notified {
		t.Fatal("scheduling the same occurrence must not reset notified")
	}
}

func TestRescheduleResetsNotified(t *testing.T) {
	now := time.Now()
	s, engine, repo, _ := newTestScheduler(t, now)
	ctx := context.Background()
	task := model.Task{ID: 6, Name: "Call Bob", Time: now.Add(time.Minute), Repeat: model.RepeatNever}
	if _, err := s.ScheduleDelivery(ctx, task); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := repo.MarkNotified(ctx, 6); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	task.Time = now.Add(5 * time.Minute)
	outcome, err := s.Reschedule(ctx, task)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if outcome != OutcomeArmed {
		t.Fatalf("expected armed, got %s", outcome)
	}
	ev, ok := engine.Pending(6)
	if !ok || !ev.Due.Equal(task.Time) {
		t.Fatalf("expected timer at new time, got %+v", ev)
	}
	got, _ := repo.GetReminder(ctx, 6)
	if got.Notified || !got.Time.Equal(task.Time) {
		t.Fatalf("unexpected record after reschedule: %+v", got)
	}
}

func TestRescheduleDoneTaskCancelsTimer(t *testing.T) {
	now := time.Now()
	s, engine, repo, _ := newTestScheduler(t, now)
	ctx := context.Background()
	task := model.Task{ID: 7, Name: "Call Bob", Time: now.Add(time.Minute), Repeat: model.RepeatNever}
	if _, err := s.ScheduleDelivery(ctx, task); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	task.Done = true
	if _, err := s.Reschedule(ctx, task); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if engine.Len() != 0 || s.Armed(7) {
		t.Fatal("done task must not keep a timer")
	}
	got, _ := repo.GetReminder(ctx, 7)
	if !got.Done {
		t.Fatalf("expected done record, got %+v", got)
	}
}

func TestCancelRemovesTimerAndRecord(t *testing.T) {
	now := time.Now()
	s, engine, repo, _ := newTestScheduler(t, now)
	ctx := context.Background()
	task := model.Task{ID: 8, Name: "Call Bob", Time: now.Add(time.Minute), Repeat: model.RepeatNever}
	if _, err := s.ScheduleDelivery(ctx, task); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	s.Cancel(ctx, 8)
	s.Cancel(ctx, 8)
	if engine.Len() != 0 {
		t.Fatal("expected timer removed")
	}
	if _, err := repo.GetReminder(ctx, 8); err != storage.ErrNotFound {
		t.Fatalf("expected record removed, got %v", err)
	}
}

func TestReleaseAllowsRearm(t *testing.T) {
	now := time.Now()
	s, engine, _, _ := newTestScheduler(t, now)
	ctx := context.Background()
	task := model.Task{ID: 9, Name: "Ping", Time: now, Repeat: model.RepeatNever}
	if _, err := s.ScheduleDelivery(ctx, task); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	ev := waitEvent(t, engine.C(), time.Second)
	s.Release(ev)
	if s.Armed(9) {
		t.Fatal("expected release to forget the fired timer")
	}
}

func TestStoreUnavailableStillArmsTimer(t *testing.T) {
	now := time.Now()
	s, engine, repo, _ := newTestScheduler(t, now)
	repo.FailWith(storage.ErrUnavailable)
	task := model.Task{ID: 10, Name: "Call Bob", Time: now.Add(time.Minute), Repeat: model.RepeatNever}
	outcome, err := s.ScheduleDelivery(context.Background(), task)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if outcome != OutcomeArmed || engine.Len() != 1 {
		t.Fatalf("expected the foreground timer despite the store failure, got %s", outcome)
	}
}
