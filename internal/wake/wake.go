// Package wake lets the foreground ask the background poller to run soon.
package wake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/fswatch"
)

const DefaultTag = "task-reminder-sync"

var ErrInvalidTag = errors.New("wake: invalid tag")

func validateTag(tag string) error {
	if tag == "" || strings.ContainsAny(tag, `/\`) || strings.HasPrefix(tag, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	return nil
}

// FileRegistrar records wake requests by touching <dir>/<tag>. A Watcher on
// the same directory in another process picks them up.
type FileRegistrar struct {
	dir string
	now func() time.Time
}

func NewFileRegistrar(dir string) (*FileRegistrar, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create wake dir: %w", err)
	}
	return &FileRegistrar{dir: dir, now: time.Now}, nil
}

func (r *FileRegistrar) Register(ctx context.Context, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTag(tag); err != nil {
		return err
	}
	stamp := r.now().UTC().Format(time.RFC3339Nano)
	return os.WriteFile(filepath.Join(r.dir, tag), []byte(stamp+"\n"), 0o644)
}

// Watcher turns wake files into tag signals.
type Watcher struct {
	fs *fswatch.Watcher
}

func NewWatcher(dir string, log zerolog.Logger) (*Watcher, error) {
	fw, err := fswatch.New(dir, fswatch.Options{
		Filter: func(name string) bool { return validateTag(name) == nil },
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("watch wake dir: %w", err)
	}
	return &Watcher{fs: fw}, nil
}

func (w *Watcher) C() <-chan string {
	return w.fs.C()
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

// ChanRegistrar delivers wake requests in process. Requests that arrive
// while one is pending are coalesced.
type ChanRegistrar struct {
	ch chan string
}

func NewChanRegistrar() *ChanRegistrar {
	return &ChanRegistrar{ch: make(chan string, 1)}
}

func (r *ChanRegistrar) Register(ctx context.Context, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTag(tag); err != nil {
		return err
	}
	select {
	case r.ch <- tag:
	default:
	}
	return nil
}

func (r *ChanRegistrar) C() <-chan string {
	return r.ch
}
