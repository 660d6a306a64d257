package wake

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRegistrarWakesWatcher(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wake")
	reg, err := NewFileRegistrar(dir)
	require.NoError(t, err)

	w, err := NewWatcher(dir, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, reg.Register(context.Background(), DefaultTag))

	select {
	case tag := <-w.C():
		assert.Equal(t, DefaultTag, tag)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for wake")
	}

	_, err = os.Stat(filepath.Join(dir, DefaultTag))
	require.NoError(t, err)
}

func TestRegisterRejectsInvalidTags(t *testing.T) {
	reg, err := NewFileRegistrar(t.TempDir())
	require.NoError(t, err)
	for _, tag := range []string{"", "../escape", ".hidden", `a\b`} {
		assert.ErrorIs(t, reg.Register(context.Background(), tag), ErrInvalidTag, tag)
	}
}

func TestChanRegistrarCoalesces(t *testing.T) {
	reg := NewChanRegistrar()
	ctx := context.Background()
	require.NoError(t, reg.Register(ctx, DefaultTag))
	require.NoError(t, reg.Register(ctx, DefaultTag))

	assert.Equal(t, DefaultTag, <-reg.C())
	select {
	case tag := <-reg.C():
		t.Fatalf("expected coalesced wake, got %q", tag)
	default:
	}
}
