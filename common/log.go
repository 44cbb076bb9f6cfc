package common

import (
	"log/slog"
)

// LogChannel is the name of the diagnostic channel export warnings and errors are written to.
const LogChannel = "webmap-layers"

// Logger returns the default logger scoped to the diagnostic channel.
func Logger() *slog.Logger {
	return slog.Default().With("channel", LogChannel)
}
