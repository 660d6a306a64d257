package model

import (
	"errors"
	"testing"
	"time"
)

func TestNextOccurrenceDailyDoneLate(t *testing.T) {
	original := time.Date(2026, 2, 9, 9, 30, 0, 0, time.UTC)
	task := Task{ID: 1, Name: "Stretch", Time: original, Repeat: RepeatDaily}
	now := original.Add(25 * time.Hour) // 2026-02-10 10:30

	next, err := NextOccurrence(task, now)
	if err != nil {
		t.Fatalf("next daily failed: %v", err)
	}
	if next.Format("2006-01-02 15:04") != "2026-02-11 09:30" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
	if next.Hour() != original.Hour() || next.Minute() != original.Minute() {
		t.Fatalf("time-of-day drifted: %s", next.Format(time.RFC3339))
	}
}

func TestNextOccurrenceWeekly(t *testing.T) {
	task := Task{ID: 1, Name: "Review", Time: time.Date(2026, 2, 2, 10, 15, 0, 0, time.UTC), Repeat: RepeatWeekly}
	now := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)

	next, err := NextOccurrence(task, now)
	if err != nil {
		t.Fatalf("next weekly failed: %v", err)
	}
	if next.Format("2006-01-02 15:04") != "2026-02-10 10:15" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
}

func TestNextOccurrenceMonthlyClampsDay(t *testing.T) {
	task := Task{ID: 1, Name: "Rent", Time: time.Date(2026, 1, 31, 17, 0, 0, 0, time.UTC), Repeat: RepeatMonthly}
	now := time.Date(2026, 1, 31, 17, 5, 0, 0, time.UTC)

	next, err := NextOccurrence(task, now)
	if err != nil {
		t.Fatalf("next monthly failed: %v", err)
	}
	if next.Format("2006-01-02 15:04") != "2026-02-28 17:00" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
}

func TestNextOccurrenceMonthlyUsesNowMonth(t *testing.T) {
	task := Task{ID: 1, Name: "Invoice", Time: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC), Repeat: RepeatMonthly}
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	next, err := NextOccurrence(task, now)
	if err != nil {
		t.Fatalf("next monthly failed: %v", err)
	}
	if next.Format("2006-01-02 15:04") != "2026-04-10 09:00" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
}

func TestNextOccurrenceNeverRepeats(t *testing.T) {
	task := Task{ID: 1, Name: "Once", Time: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC), Repeat: RepeatNever}
	_, err := NextOccurrence(task, time.Now())
	if !errors.Is(err, ErrNotRecurring) {
		t.Fatalf("expected ErrNotRecurring, got %v", err)
	}
}

func TestNextTaskCopiesChainMetadata(t *testing.T) {
	task := Task{ID: 1, Name: "Water plants", Time: time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC), Repeat: RepeatDaily, Done: true, Scheduled: true}
	next, err := NextTask(task, 42, time.Date(2026, 2, 9, 7, 1, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("next task failed: %v", err)
	}
	if next.ID != 42 || next.Name != task.Name || next.Repeat != RepeatDaily {
		t.Fatalf("unexpected next task: %+v", next)
	}
	if next.Done || next.Scheduled {
		t.Fatalf("next task must start pending and unscheduled: %+v", next)
	}
}

func TestPreviewDaily(t *testing.T) {
	task := Task{ID: 1, Name: "Journal", Time: time.Date(2026, 2, 1, 21, 0, 0, 0, time.UTC), Repeat: RepeatDaily}
	list, err := Preview(task, time.Date(2026, 2, 1, 21, 0, 0, 0, time.UTC), 3)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	want := []string{"2026-02-02 21:00", "2026-02-03 21:00", "2026-02-04 21:00"}
	if len(list) != len(want) {
		t.Fatalf("expected %d preview items, got %d", len(want), len(list))
	}
	for i := range list {
		if got := list[i].Format("2006-01-02 15:04"); got != want[i] {
			t.Fatalf("preview[%d] got %s want %s", i, got, want[i])
		}
	}
}
