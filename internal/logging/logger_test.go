package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel_AcceptsKnownLevels_When_AnyCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{" INFO ", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"Error", slog.LevelError, true},
		{"off", 0, false},
		{"", 0, false},
		{"verbose", 0, false},
	}

	for _, tc := range tests {
		got, ok := ParseLevel(tc.in)
		assert.Equal(t, tc.wantOK, ok, "level %q", tc.in)
		if tc.wantOK {
			assert.Equal(t, tc.want, got, "level %q", tc.in)
		}
	}
}

func TestNew_FiltersByLevel_When_LevelIsWarn(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "run_id", "abc")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "run_id=abc")
}

func TestNew_Discards_When_LevelIsOff(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, "off")
	logger.Error("nothing")

	assert.Empty(t, buf.String())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestNewFile_WritesJSON_When_PathGiven(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "dlpstream.log")
	logger, closeFn, err := NewFile(path, "debug")
	require.NoError(t, err)

	logger.Debug("process started", "pid", 42)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "process started", rec["msg"])
	assert.EqualValues(t, 42, rec["pid"])
}

func TestDiscard_DisablesEveryLevel_When_Used(t *testing.T) {
	t.Parallel()

	logger := Discard()
	for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		assert.False(t, logger.Enabled(context.Background(), lvl))
	}
	assert.Equal(t, slog.DiscardHandler, logger.Handler())
}
