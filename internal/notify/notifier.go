package notify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// Notifier shows a notification. The returned channel yields the chosen
// action id once, or an empty string when the notification is dismissed,
// and is then closed.
type Notifier interface {
	Show(ctx context.Context, n Notification) (<-chan string, error)
}

type NoopNotifier struct{}

func (NoopNotifier) Show(context.Context, Notification) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

// ExecNotifier renders notifications with notify-send on Linux and osascript
// on macOS.
type ExecNotifier struct {
	GOOS     string
	AppName  string
	LookPath func(file string) (string, error)
	Command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewExecNotifier() *ExecNotifier {
	return &ExecNotifier{
		GOOS:     runtime.GOOS,
		AppName:  "remindd",
		LookPath: exec.LookPath,
		Command:  exec.CommandContext,
	}
}

func (e *ExecNotifier) Show(ctx context.Context, n Notification) (<-chan string, error) {
	name, args, err := e.commandFor(n)
	if err != nil {
		return nil, err
	}
	path, err := e.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPermissionDenied, name, err)
	}

	cmd := e.Command(ctx, path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("notify: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("notify: start %s: %w", name, err)
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		var chosen string
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				chosen = line
			}
		}
		if err := cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return
			}
		}
		out <- e.actionFromOutput(n, chosen)
	}()
	return out, nil
}

func (e *ExecNotifier) commandFor(n Notification) (string, []string, error) {
	switch e.GOOS {
	case "linux":
		args := []string{"--app-name=" + e.AppName}
		if n.Tag != "" {
			args = append(args, "--hint=string:x-canonical-private-synchronous:"+n.Tag)
		}
		if n.RequireInteraction {
			args = append(args, "--urgency=critical")
		}
		if len(n.Actions) > 0 {
			args = append(args, "--wait", "--action="+DefaultActionID+"=Open")
			for _, a := range n.Actions {
				args = append(args, "--action="+a.ID+"="+a.Label)
			}
		}
		args = append(args, n.Title, n.Body)
		return "notify-send", args, nil
	case "darwin":
		if len(n.Actions) == 0 {
			script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
			return "osascript", []string{"-e", script}, nil
		}
		labels := make([]string, 0, len(n.Actions))
		for _, a := range n.Actions {
			labels = append(labels, `"`+escapeAppleScript(a.Label)+`"`)
		}
		script := fmt.Sprintf(`display dialog "%s" with title "%s" buttons {%s} default button 1`,
			escapeAppleScript(n.Body), escapeAppleScript(n.Title), strings.Join(labels, ", "))
		return "osascript", []string{"-e", script}, nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported platform %s", ErrPermissionDenied, e.GOOS)
	}
}

// actionFromOutput maps the tool output to an action id. notify-send prints
// the id itself; osascript prints "button returned:<label>".
func (e *ExecNotifier) actionFromOutput(n Notification, out string) string {
	if label, ok := strings.CutPrefix(out, "button returned:"); ok {
		for _, a := range n.Actions {
			if a.Label == label {
				return a.ID
			}
		}
		return DefaultActionID
	}
	return out
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// RecordingNotifier keeps every shown notification and answers with the
// action queued for its tag. It is used by tests and by headless runs
// without a notification daemon.
type RecordingNotifier struct {
	mu      sync.Mutex
	shown   []Notification
	answers map[string]string
	Err     error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{answers: make(map[string]string)}
}

// Answer queues the action the next notification with tag resolves to.
func (r *RecordingNotifier) Answer(tag, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers[tag] = action
}

func (r *RecordingNotifier) Show(_ context.Context, n Notification) (<-chan string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	r.shown = append(r.shown, n)
	ch := make(chan string, 1)
	ch <- r.answers[n.Tag]
	delete(r.answers, n.Tag)
	close(ch)
	return ch, nil
}

func (r *RecordingNotifier) Shown() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.shown))
	copy(out, r.shown)
	return out
}
