package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
)

const requestLoggerKey = "pixelflow.logger"

type Logger struct {
	*slog.Logger
}

var level = new(slog.LevelVar)

// SetLevel changes the level of every logger built by this package.
func SetLevel(name string) {
	switch name {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

func BuildLogger() *Logger {
	return BuildLoggerTo(os.Stdout)
}

func BuildLoggerTo(w io.Writer) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))}
}

// BuildLoggerFromCtx returns the request-scoped logger, creating and caching it
// on first use.
func BuildLoggerFromCtx(ctx *gin.Context) *Logger {
	if cached, ok := ctx.Get(requestLoggerKey); ok {
		if logger, ok := cached.(*Logger); ok {
			return logger
		}
	}
	logger := BuildLogger().With("path", ctx.Request.URL.Path, "method", ctx.Request.Method)
	ctx.Set(requestLoggerKey, logger)
	return logger
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func (l *Logger) WithError(err error) *Logger {
	return l.With("error", err.Error())
}
