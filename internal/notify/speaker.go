package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// Speaker reads a reminder aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type NoopSpeaker struct{}

func (NoopSpeaker) Speak(context.Context, string) error { return nil }

func SpeechText(name string) string {
	return "Reminder: " + name
}

// ExecSpeaker uses espeak on Linux and say on macOS.
type ExecSpeaker struct {
	GOOS     string
	LookPath func(file string) (string, error)
	Command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewExecSpeaker() *ExecSpeaker {
	return &ExecSpeaker{
		GOOS:     runtime.GOOS,
		LookPath: exec.LookPath,
		Command:  exec.CommandContext,
	}
}

func (s *ExecSpeaker) Speak(ctx context.Context, text string) error {
	name, args, err := s.commandFor(text)
	if err != nil {
		return err
	}
	path, err := s.LookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, name, err)
	}
	return s.Command(ctx, path, args...).Run()
}

func (s *ExecSpeaker) commandFor(text string) (string, []string, error) {
	line := SpeechText(text)
	switch s.GOOS {
	case "linux":
		return "espeak", []string{"-v", "en-us", "-s", "150", line}, nil
	case "darwin":
		return "say", []string{"-r", "170", line}, nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported platform %s", ErrPermissionDenied, s.GOOS)
	}
}

type RecordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (r *RecordingSpeaker) Speak(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return nil
}

func (r *RecordingSpeaker) Spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.spoken))
	copy(out, r.spoken)
	return out
}
