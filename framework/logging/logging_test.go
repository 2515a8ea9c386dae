package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, logging.ParseLevel(in), "level %q", in)
	}
}

func TestNew_LocalUsesText(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{App: config.AppConfig{Name: "zoo", Env: "local"}, Log: config.LogConfig{Level: "info"}}

	var buf bytes.Buffer
	logger := logging.New(cfg, &buf)
	logger.Debug("hidden")
	logger.Info("bean built", "id", "dog")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"bean built\"")
	assert.Contains(t, out, "app=zoo")
	assert.Contains(t, out, "id=dog")
}

func TestNew_ProductionUsesJSON(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{App: config.AppConfig{Name: "zoo", Env: "production"}, Log: config.LogConfig{Level: "debug"}}

	var buf bytes.Buffer
	logging.New(cfg, &buf).Debug("resolving", "id", "human")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "resolving", rec["msg"])
	assert.Equal(t, "zoo", rec["app"])
	assert.Equal(t, "human", rec["id"])
}
