package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("Should write JSON at or above the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(config.LogConfig{Level: "warn", Console: true}, &buf)
		l.Info("hidden")
		l.Warn("schedule.day_fallback", "raw", "garbage")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "schedule.day_fallback", rec["msg"])
		assert.Equal(t, "garbage", rec["raw"])
		assert.Equal(t, "WARN", rec["level"])
	})

	t.Run("Should tee into the rotating file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "carpool.log")
		l := New(config.LogConfig{Level: "debug", Console: true, File: path, MaxSizeMB: 1}, &buf)
		l.Debug("hello")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("Should default to stdout when nothing is enabled", func(t *testing.T) {
		var buf bytes.Buffer
		New(config.LogConfig{}, &buf).Info("x")
		assert.NotEmpty(t, buf.String())
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
