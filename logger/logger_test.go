package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fiscal-planner/config"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, "json", slog.LevelInfo))

	l.Debug("hidden")
	l.Info("plan opened", "plan_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "plan opened", entry["msg"])
	assert.Equal(t, float64(7), entry["plan_id"])
}

func TestNewHandler_ConsoleWithoutColour(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, "console", slog.LevelInfo))

	l.Error("save failed", "error", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "save failed")
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "\x1b[") // a buffer is not a terminal
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.log")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	closer, err := Init(config.LoggerConfig{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)

	WithComponent("test").Debug("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"msg":"hello"`)

	_, err = Init(config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
