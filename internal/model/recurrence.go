package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotRecurring = errors.New("model: task does not repeat")

// NextOccurrence returns the due time of the occurrence that follows t when it
// is completed at now. The date is derived from now and the time-of-day from
// the anchor occurrence, so pressing done late never drifts the clock time.
func NextOccurrence(t Task, now time.Time) (time.Time, error) {
	anchor := t.Time
	if anchor.IsZero() {
		return time.Time{}, errors.New("model: occurrence time is required")
	}
	base := now.In(anchor.Location())

	switch t.Repeat {
	case RepeatDaily:
		return withAnchorClock(base.AddDate(0, 0, 1), anchor), nil
	case RepeatWeekly:
		return withAnchorClock(base.AddDate(0, 0, 7), anchor), nil
	case RepeatMonthly:
		return nextMonthly(base, anchor), nil
	case RepeatNever, "":
		return time.Time{}, ErrNotRecurring
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRepeat, t.Repeat)
	}
}

// NextTask builds the follow-up task for a completed repeating occurrence.
func NextTask(t Task, id int64, now time.Time) (Task, error) {
	next, err := NextOccurrence(t, now)
	if err != nil {
		return Task{}, err
	}
	return Task{
		ID:     id,
		Name:   t.Name,
		Time:   next,
		Repeat: t.Repeat,
	}, nil
}

// Preview lists the next count occurrences assuming each one is completed
// exactly when it becomes due.
func Preview(t Task, now time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return []time.Time{}, nil
	}
	out := make([]time.Time, 0, count)
	cursor := t
	at := now
	for i := 0; i < count; i++ {
		next, err := NextOccurrence(cursor, at)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		cursor.Time = next
		at = next
	}
	return out, nil
}

func nextMonthly(base, anchor time.Time) time.Time {
	y, m, _ := base.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, anchor.Location()).AddDate(0, 1, 0)
	day := anchor.Day()
	if last := daysIn(first.Year(), first.Month(), anchor.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

func withAnchorClock(date time.Time, anchor time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
}
