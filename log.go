package olm

import (
	"github.com/decred/slog"

	"olm/internal/pickle"
	"olm/internal/protocol/ratchet"
)

var log slog.Logger = slog.Disabled

// UseLogger sets the logger of the engine and its internal packages. The
// engine logs at debug and trace levels only and never logs key material.
func UseLogger(l slog.Logger) {
	log = l
	pickle.UseLogger(l)
	ratchet.UseLogger(l)
}
