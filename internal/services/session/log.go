package session

import "github.com/decred/slog"

var log slog.Logger = slog.Disabled

// UseLogger sets the package logger.
func UseLogger(l slog.Logger) {
	log = l
}
