package actions

import (
	"context"
	"errors"
	"slices"

	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/scheduler"
	"github.com/sandeepkv93/remindd/internal/storage"
)

// Report summarises a launch reconciliation.
type Report struct {
	Duplicates int
	Drained    int
	Completed  int
	Orphans    int
	Resynced   int
	Armed      int
	Missed     int
}

// DrainFunc applies queued cross-context messages and returns how many were
// applied.
type DrainFunc func(ctx context.Context) (int, error)

// Reconcile brings the task list, the ledger and the timers back in line at
// page launch.
func (r *Router) Reconcile(ctx context.Context, drain DrainFunc) (Report, error) {
	var rep Report

	if err := r.normalize(ctx, &rep); err != nil {
		return rep, err
	}

	if drain != nil {
		n, err := drain(ctx)
		if err != nil {
			r.log.Warn().Err(err).Msg("drain queued messages")
		}
		rep.Drained = n
	}

	if err := r.syncLedger(ctx, &rep); err != nil {
		r.log.Warn().Err(err).Msg("sync reminder ledger")
	}

	if err := r.armAll(ctx, &rep); err != nil {
		return rep, err
	}

	r.log.Info().
		Int("duplicates", rep.Duplicates).
		Int("drained", rep.Drained).
		Int("completed", rep.Completed).
		Int("orphans", rep.Orphans).
		Int("resynced", rep.Resynced).
		Int("armed", rep.Armed).
		Int("missed", rep.Missed).
		Msg("reconciled")
	return rep, nil
}

// normalize drops duplicate ids, keeping the first, and clears scheduled
// flags left over from a previous process.
func (r *Router) normalize(ctx context.Context, rep *Report) error {
	return r.mutate(ctx, func(tasks []model.Task) ([]model.Task, []model.Task, error) {
		seen := make(map[int64]struct{}, len(tasks))
		out := make([]model.Task, 0, len(tasks))
		for _, t := range tasks {
			if _, dup := seen[t.ID]; dup {
				rep.Duplicates++
				continue
			}
			seen[t.ID] = struct{}{}
			t = t.Normalize()
			t.Scheduled = false
			out = append(out, t)
		}
		return out, nil, nil
	}, false)
}

func (r *Router) syncLedger(ctx context.Context, rep *Report) error {
	recs, err := r.ledger.ListReminders(ctx, storage.ReminderFilter{})
	if err != nil {
		return err
	}
	if err := r.reload(ctx); err != nil {
		return err
	}
	tasks := r.Tasks()

	for _, rec := range recs {
		i := model.IndexOf(tasks, rec.ID)
		if i < 0 {
			if err := r.ledger.DeleteReminder(ctx, rec.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
				r.log.Warn().Err(err).Int64("task_id", rec.ID).Msg("delete orphan record")
				continue
			}
			rep.Orphans++
			continue
		}
		t := tasks[i]

		if rec.Notified && !t.Done && rec.Time.Equal(t.Time) {
			if _, err := r.Complete(ctx, t.ID); err != nil {
				r.log.Warn().Err(err).Int64("task_id", t.ID).Msg("complete delivered task")
				continue
			}
			rep.Completed++
			continue
		}

		if !rec.Matches(t) {
			fresh := t.Record()
			if rec.Time.Equal(t.Time) {
				fresh.Notified = rec.Notified
			}
			if err := r.ledger.PutReminder(ctx, fresh); err != nil {
				r.log.Warn().Err(err).Int64("task_id", t.ID).Msg("resync record")
				continue
			}
			rep.Resynced++
		}
	}
	return nil
}

func (r *Router) armAll(ctx context.Context, rep *Report) error {
	return r.mutate(ctx, func(tasks []model.Task) ([]model.Task, []model.Task, error) {
		pending := slices.DeleteFunc(slices.Clone(tasks), func(t model.Task) bool {
			return t.Done || t.Scheduled
		})
		if len(pending) == 0 {
			return nil, nil, nil
		}
		return tasks, pending, nil
	}, false, func(outcome scheduler.Outcome) {
		switch outcome {
		case scheduler.OutcomeArmed, scheduler.OutcomeDueNow, scheduler.OutcomeDuplicate:
			rep.Armed++
		case scheduler.OutcomeMissed:
			rep.Missed++
		}
	})
}
