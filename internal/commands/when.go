package commands

import (
	"strings"
	"time"
)

const (
	clockLayout    = "15:04"
	dateTimeLayout = "2006-01-02 15:04"
)

// ParseWhen resolves a reminder time relative to now. A bare clock time
// that already passed today means tomorrow.
func ParseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, invalid("time is empty")
	}

	if rel, ok := strings.CutPrefix(s, "+"); ok {
		d, err := time.ParseDuration(rel)
		if err != nil || d <= 0 {
			return time.Time{}, invalid("invalid relative time %q", s)
		}
		return now.Add(d).Truncate(time.Second), nil
	}

	if t, err := time.ParseInLocation(clockLayout, s, now.Location()); err == nil {
		at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at, nil
	}
	if t, err := time.ParseInLocation(dateTimeLayout, s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, invalid("unrecognised time %q (use 15:04, 2006-01-02 15:04, RFC3339 or +10m)", s)
}
