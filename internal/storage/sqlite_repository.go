package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sandeepkv93/remindd/internal/model"
)

const (
	sqliteTimeLayout = time.RFC3339Nano
	busyTimeout      = 5 * time.Second
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// OpenSQLite opens the database at path in WAL mode with a busy timeout so
// the page and the poller processes can share it, then applies migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite: %w", ErrUnavailable, err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func sqliteDSN(path string) string {
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprint(busyTimeout.Milliseconds()))
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	return "file:" + path + "?" + q.Encode()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// LoadTasks returns the stored task list. A missing key is an empty list.
func (r *SQLiteRepository) LoadTasks(ctx context.Context) ([]model.Task, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, TasksKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Task{}, nil
	}
	if err != nil {
		return nil, unavailable("load tasks", err)
	}
	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	for i := range tasks {
		tasks[i] = tasks[i].Normalize()
	}
	return tasks, nil
}

func (r *SQLiteRepository) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		TasksKey, string(raw), mustTime(r.now()),
	)
	if err != nil {
		return unavailable("save tasks", err)
	}
	return nil
}

// PutReminder inserts or replaces the record for rec.ID, including its
// notified flag.
func (r *SQLiteRepository) PutReminder(ctx context.Context, rec model.ReminderRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (id, name, time, done, notified, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			time = excluded.time,
			done = excluded.done,
			notified = excluded.notified,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, mustTime(rec.Time), boolInt(rec.Done), boolInt(rec.Notified), mustTime(r.now()),
	)
	if err != nil {
		return unavailable("put reminder", err)
	}
	return nil
}

func (r *SQLiteRepository) GetReminder(ctx context.Context, id int64) (model.ReminderRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, time, done, notified FROM reminders WHERE id = ?`, id)
	rec, err := scanReminder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ReminderRecord{}, ErrNotFound
		}
		return model.ReminderRecord{}, unavailable("get reminder", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListReminders(ctx context.Context, filter ReminderFilter) ([]model.ReminderRecord, error) {
	query := `SELECT id, name, time, done, notified FROM reminders`
	args := make([]any, 0, 2)
	if filter.PendingOnly {
		query += ` WHERE done = 0 AND notified = 0`
	}
	query += ` ORDER BY id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list reminders", err)
	}
	defer rows.Close()

	out := make([]model.ReminderRecord, 0)
	for rows.Next() {
		rec, scanErr := scanReminder(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list reminders", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkNotified(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET notified = 1, updated_at = ? WHERE id = ?`, mustTime(r.now()), id)
	if err != nil {
		return unavailable("mark notified", err)
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return unavailable("delete reminder", err)
	}
	return checkRowsAffected(res)
}

func applyPagination(args *[]any, limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	*args = append(*args, limit, offset)
	return ` LIMIT ? OFFSET ?`
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

func mustTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(value string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	return t, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(s scanner) (model.ReminderRecord, error) {
	var out model.ReminderRecord
	var at string
	var done, notified int
	if err := s.Scan(&out.ID, &out.Name, &at, &done, &notified); err != nil {
		return model.ReminderRecord{}, err
	}
	parsed, err := parseRequiredTime(at)
	if err != nil {
		return model.ReminderRecord{}, err
	}
	out.Time = parsed
	out.Done = done == 1
	out.Notified = notified == 1
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
