package logging

import (
	"bytes"
	log "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.LevelDebug,
		"INFO":    log.LevelInfo,
		" warn ":  log.LevelWarn,
		"error":   log.LevelError,
		"verbose": log.LevelInfo,
		"":        log.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, Level(in), "level %q", in)
	}
}

func TestSetupFiltersByLevel(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	var buf bytes.Buffer
	l := Setup(&buf, "warn")

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "value")
	assert.Same(t, l, log.Default())
}
