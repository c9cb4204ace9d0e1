//go:build linux

package watch

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/treefs/treefs"
)

func signalSupported() bool { return true }

// dnotify event flags from <fcntl.h>; x/sys/unix exports F_SETSIG and
// F_NOTIFY but not the DN_* values.
const (
	dnModify    = 0x2
	dnCreate    = 0x4
	dnMultishot = 0x80000000
)

// newSignalLoop arms dnotify on the watched path: the kernel delivers a
// notification signal on modify and create events, with multishot delivery
// so a single arm call keeps notifying. Every signal surfaces as a generic
// UPDATE on the watched path. If the descriptor cannot be armed the loop
// degrades to a sleep-only loop after a single warning.
func newSignalLoop(path string, interval time.Duration, fn treefs.Callback, log zerolog.Logger) loopFunc {
	f, err := os.Open(path)
	if err != nil {
		return degradedSignalLoop(interval, log, err)
	}
	if err := armNotify(f); err != nil {
		f.Close() //nolint:errcheck
		return degradedSignalLoop(interval, log, err)
	}
	sig := make(chan os.Signal, 16)
	signal.Notify(sig, unix.SIGIO)
	return func(ctx context.Context) {
		defer f.Close() //nolint:errcheck
		defer signal.Stop(sig)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				safeInvoke(log, fn, path, treefs.OpUpdate)
			}
		}
	}
}

func armNotify(f *os.File) error {
	// F_SETSIG 0 keeps the default SIGIO delivery.
	if _, err := unix.FcntlInt(f.Fd(), unix.F_SETSIG, 0); err != nil {
		return err
	}
	_, err := unix.FcntlInt(f.Fd(), unix.F_NOTIFY,
		dnModify|dnCreate|dnMultishot)
	return err
}
