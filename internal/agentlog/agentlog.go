// Package agentlog configures the agent's single logger.
//
// Grounded on ro/main.go and sdmconfig/main.go, which both build a
// log/slog handler from a flag at start-up. This agent has no flags
// (stdin/stdout are reserved for the framed RPC wire) so the level
// instead comes from the RUST_LOG-style environment variable named in
// spec.md §6. Logs always go to stderr, in JSON, regardless of level.
package agentlog

import (
	"log/slog"
	"os"
	"strings"
)

// EnvVar is the only environment variable the agent consumes (spec.md §6).
const EnvVar = "RUST_LOG"

// Init configures the default slog logger from the RUST_LOG environment
// variable and returns the configured logger, which is also installed as
// the slog default.
func Init() *slog.Logger {
	level := levelFromEnv(os.Getenv(EnvVar))
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func levelFromEnv(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "trace":
		return slog.LevelDebug - 4
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
