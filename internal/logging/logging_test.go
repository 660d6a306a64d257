package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "remindd.log")
	log, closer, err := New("info", file)
	require.NoError(t, err)

	cmpLog := Component(log, "poller")
	cmpLog.Info().Int64("reminder_id", 7).Msg("delivered")
	log.Debug().Msg("filtered")
	closer()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "poller", entry["cmp"])
	assert.Equal(t, "delivered", entry["message"])
	assert.EqualValues(t, 7, entry["reminder_id"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New("loud", "")
	assert.Error(t, err)
}
