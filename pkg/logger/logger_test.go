package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{FormatText, func(t *testing.T, out string) {
			assert.Contains(t, out, "level=INFO")
			assert.Contains(t, out, `msg=hello`)
			assert.Contains(t, out, "rule=join.implicit")
		}},
		{FormatJSON, func(t *testing.T, out string) {
			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &entry))
			assert.Equal(t, "hello", entry["msg"])
			assert.Equal(t, "join.implicit", entry["rule"])
		}},
		{FormatConsole, func(t *testing.T, out string) {
			assert.Contains(t, out, "hello")
			assert.Contains(t, out, "join.implicit")
		}},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Options{Format: tc.format, Writer: &buf})
			l.Info("hello", "rule", "join.implicit")
			tc.check(t, buf.String())
		})
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: slog.LevelWarn, Writer: &buf})
	l.Info("hidden")
	l.Debug("hidden")
	l.Warn("shown", Error(errors.New("boom")))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestNew_File(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "optimizer.log")
	l := New(Options{Writer: &buf, File: path, Format: FormatConsole})
	l.Error("written", RequestID("abc"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
	assert.Contains(t, string(data), "abc")
	assert.NotContains(t, string(data), "\x1b[")
	assert.Contains(t, buf.String(), "written")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
	assert.NoError(t, NewWithLevel(slog.LevelInfo).Close())
}
