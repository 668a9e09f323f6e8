package main

import (
	"io"
	"log/slog"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// setupLogger builds the logger for env, writing to out.
func setupLogger(env string, out io.Writer) *slog.Logger {
	dropTime := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}

	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	case envDev:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envProd:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:       slog.LevelWarn,
			ReplaceAttr: dropTime,
		}))
	default:
		log := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:       slog.LevelError,
			ReplaceAttr: dropTime,
		}))
		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))

		return log
	}
}
