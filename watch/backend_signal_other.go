//go:build !linux

package watch

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/treefs/treefs"
)

func signalSupported() bool { return false }

// newSignalLoop on hosts without kernel notification signals degrades to the
// sleep-only loop; it exists so a forced signal backend still cannot crash.
func newSignalLoop(_ string, interval time.Duration, _ treefs.Callback, log zerolog.Logger) loopFunc {
	return degradedSignalLoop(interval, log, errors.New("kernel notification signals not supported on this platform"))
}
