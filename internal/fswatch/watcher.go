package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const (
	DefaultDebounce = 50 * time.Millisecond
	eventBufferSize = 64
)

// Watcher reports debounced changes to files in a single directory. Each
// event carries the base name of the changed file.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	filter   func(name string) bool
	debounce time.Duration
	log      zerolog.Logger
	out      chan string

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Options struct {
	// Filter selects the file names that produce events. Temp files are
	// always ignored.
	Filter   func(name string) bool
	Debounce time.Duration
	Logger   zerolog.Logger
}

// New watches dir, creating it if needed.
func New(dir string, opts Options) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		dir:      dir,
		watcher:  fw,
		filter:   opts.Filter,
		debounce: opts.Debounce,
		log:      opts.Logger,
		out:      make(chan string, eventBufferSize),
		pending:  make(map[string]*time.Timer),
		ctx:      ctx,
		cancel:   cancel,
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) C() <-chan string {
	return w.out
}

func (w *Watcher) Dir() string {
	return w.dir
}

// Close stops watching and closes the event channel.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return err
	}
	w.closed = true
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = nil
	close(w.out)
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Str("dir", w.dir).Msg("watch error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	name := filepath.Base(event.Name)
	if strings.HasSuffix(name, ".tmp") || strings.HasPrefix(name, ".") {
		return
	}
	if w.filter != nil && !w.filter(name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if timer, exists := w.pending[name]; exists {
		timer.Stop()
	}
	w.pending[name] = time.AfterFunc(w.debounce, func() {
		w.emit(name)
	})
}

func (w *Watcher) emit(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	delete(w.pending, name)
	select {
	case w.out <- name:
	default:
		// A change is already queued; the consumer rescans anyway.
	}
}
