package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/remindd/internal/fswatch"
)

const messageExt = ".json"

// Mailbox is a durable queue of messages stored one file per message. File
// names sort by creation time so claims come back oldest first.
type Mailbox struct {
	dir string
	now func() time.Time
	log zerolog.Logger
}

func NewMailbox(dir string, now func() time.Time, log zerolog.Logger) (*Mailbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mailbox dir: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &Mailbox{dir: dir, now: now, log: log}, nil
}

func (m *Mailbox) Dir() string {
	return m.dir
}

// Enqueue validates msg and writes it atomically.
func (m *Mailbox) Enqueue(ctx context.Context, msg Message) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	msg = msg.stamped(m.now())
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return Message{}, fmt.Errorf("encode message: %w", err)
	}

	name := fmt.Sprintf("%020d-%s%s", msg.CreatedAt.UnixNano(), msg.ID, messageExt)
	path := filepath.Join(m.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Message{}, fmt.Errorf("write message: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Message{}, fmt.Errorf("commit message: %w", err)
	}
	return msg, nil
}

// Claim removes and returns every queued message, oldest first. Malformed
// files are logged and discarded. A file removed concurrently by another
// process is skipped.
func (m *Mailbox) Claim(ctx context.Context) ([]Message, error) {
	names, err := m.list()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		path := filepath.Join(m.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				m.log.Warn().Err(err).Str("file", name).Msg("read queued message")
			}
			continue
		}
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				m.log.Warn().Err(err).Str("file", name).Msg("claim queued message")
			}
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			m.log.Warn().Err(err).Str("file", name).Msg("dropping undecodable message")
			continue
		}
		if err := msg.Validate(); err != nil {
			m.log.Warn().Err(err).Str("file", name).Msg("dropping malformed message")
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Len reports the number of queued messages.
func (m *Mailbox) Len() (int, error) {
	names, err := m.list()
	return len(names), err
}

// Watch reports new messages so an attached page can drain promptly.
func (m *Mailbox) Watch() (*fswatch.Watcher, error) {
	return fswatch.New(m.dir, fswatch.Options{
		Filter: func(name string) bool { return strings.HasSuffix(name, messageExt) },
		Logger: m.log,
	})
}

func (m *Mailbox) list() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("list mailbox: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), messageExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
