package di

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// ProvideLogger creates a new zerolog.Logger configured for the runtime environment.
// On Cloud Run or Cloud Functions (K_SERVICE or FUNCTION_TARGET set) it writes JSON,
// in a terminal it uses console format. LOG_LEVEL overrides the info default.
func ProvideLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}

	if os.Getenv("K_SERVICE") != "" || os.Getenv("FUNCTION_TARGET") != "" {
		return zerolog.New(os.Stdout).
			Level(level).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// ProvideContext returns a background context carrying logger
func ProvideContext(logger zerolog.Logger, env string) context.Context {
	if env != "" {
		logger = logger.With().Str("env", env).Logger()
	}
	return logger.WithContext(context.Background())
}
