package logging

import (
	"io"
	log "log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Level maps a flag value onto a slog level. Unknown names fall back to info.
func Level(name string) log.Level {
	if lvl, ok := logLevelMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return log.LevelInfo
}

// Setup installs a tint handler as the default logger.
func Setup(w io.Writer, level string) *log.Logger {
	l := log.New(tint.NewHandler(w, &tint.Options{
		Level:      Level(level),
		TimeFormat: "15:04:05.000",
	}))
	log.SetDefault(l)
	return l
}
