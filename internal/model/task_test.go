package model

import (
	"errors"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	task := Task{
		ID:     1739098800000,
		Name:   "Call Bob",
		Time:   time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
		Repeat: RepeatNever,
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateRequiresFields(t *testing.T) {
	task := Task{ID: 1, Name: "  ", Time: time.Now(), Repeat: RepeatNever}
	if err := task.Validate(); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got: %v", err)
	}

	task.Name = "ok"
	task.Time = time.Time{}
	if err := task.Validate(); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask for zero time, got: %v", err)
	}

	task.Time = time.Now()
	task.Repeat = Repeat("yearly")
	if err := task.Validate(); !errors.Is(err, ErrInvalidRepeat) {
		t.Fatalf("expected ErrInvalidRepeat, got: %v", err)
	}
}

func TestParseRepeat(t *testing.T) {
	cases := map[string]Repeat{
		"":        RepeatNever,
		"Daily":   RepeatDaily,
		" weekly": RepeatWeekly,
		"monthly": RepeatMonthly,
	}
	for in, want := range cases {
		got, err := ParseRepeat(in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q got %q want %q", in, got, want)
		}
	}
	if _, err := ParseRepeat("hourly"); !errors.Is(err, ErrInvalidRepeat) {
		t.Fatalf("expected ErrInvalidRepeat, got %v", err)
	}
}

func TestTaskNormalizeDefaultsRepeat(t *testing.T) {
	task := Task{ID: 1, Name: "legacy", Time: time.Now()}.Normalize()
	if task.Repeat != RepeatNever {
		t.Fatalf("expected never, got %q", task.Repeat)
	}
}

func TestTaskRecordProjection(t *testing.T) {
	at := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{ID: 7, Name: "Pay rent", Time: at, Done: true, Repeat: RepeatMonthly, Scheduled: true}
	rec := task.Record()
	if rec.ID != 7 || rec.Name != "Pay rent" || !rec.Time.Equal(at) || !rec.Done || rec.Notified {
		t.Fatalf("unexpected projection: %+v", rec)
	}
	if !rec.Matches(task) {
		t.Fatal("expected record to match its task")
	}
	task.Time = at.Add(time.Minute)
	if rec.Matches(task) {
		t.Fatal("expected record to drift after time change")
	}
}

func TestIDSourceIsMonotonic(t *testing.T) {
	fixed := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	ids := NewIDSource(func() time.Time { return fixed })
	first := ids.Next()
	second := ids.Next()
	if first != fixed.UnixMilli() || second != first+1 {
		t.Fatalf("unexpected ids: %d %d", first, second)
	}

	ids.Observe(second + 100)
	if got := ids.Next(); got != second+101 {
		t.Fatalf("expected id above observed floor, got %d", got)
	}
}
