// Package watch is the change-notification subsystem: three incompatible
// native mechanisms (event-queue APIs, kernel notification signals, timed
// polling) unified behind one callback contract.
//
// The backend is chosen once per registration by runtime capability probing,
// never by compile-time branching alone, so the same binary can be exercised
// against the polling backend in tests on any host. Each active watch runs
// on its own goroutine and shares no state with the entity tree beyond the
// caller-supplied callback.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"

	"github.com/treefs/treefs"
	"github.com/treefs/treefs/internal/util"
)

// Backend names a concrete notification strategy.
type Backend string

const (
	// BackendNative uses the platform's directory-change event queue.
	BackendNative Backend = "native"
	// BackendSignal uses kernel-delivered notification signals on a file
	// descriptor (dnotify); it degrades to a warned sleep loop where the
	// facility is unavailable.
	BackendSignal Backend = "signal"
	// BackendPoll samples timestamps or name sets at a fixed interval.
	BackendPoll Backend = "poll"
)

// DefaultPollingInterval is used when a registration does not specify one.
const DefaultPollingInterval = 30 * time.Second

// Options tune a single registration.
type Options struct {
	// PollingInterval is the sampling period for the polling backend.
	PollingInterval time.Duration
	// Backend forces a specific strategy; empty selects by capability
	// probing (native, then signal, then polling).
	Backend Backend
}

// Watch is the cancellation handle returned from Register. There is no
// other unregister path: cancellation is cooperative through the handle.
type Watch struct {
	id      uuid.UUID
	path    string
	backend Backend
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ treefs.WatchHandle = (*Watch)(nil)

// ID returns the registration's unique identifier.
func (w *Watch) ID() uuid.UUID { return w.id }

// Path returns the watched location.
func (w *Watch) Path() string { return w.path }

// Backend returns the strategy selected at registration time.
func (w *Watch) Backend() Backend { return w.backend }

// Cancel cooperatively stops the watch loop. Safe to call repeatedly.
func (w *Watch) Cancel() { w.cancel() }

// Done is closed once the loop has fully stopped.
func (w *Watch) Done() <-chan struct{} { return w.done }

// registry tracks running watches by ID, one entry per active loop.
var registry = xsync.NewMap[uuid.UUID, *Watch]()

// Active returns the number of currently running watches.
func Active() int { return registry.Size() }

// loopFunc is a backend's blocking monitor loop; it must return promptly
// once ctx is cancelled.
type loopFunc func(ctx context.Context)

// Register attaches fn to path and returns immediately; the selected
// backend's loop runs on its own goroutine until the returned handle is
// cancelled or the process exits. isDir selects the directory flavor of the
// polling backend.
func Register(path string, isDir bool, fn treefs.Callback, opts Options) (*Watch, error) {
	if fn == nil {
		return nil, errors.New("watch: nil callback")
	}
	if path == "" {
		return nil, errors.New("watch: empty path")
	}
	interval := opts.PollingInterval
	if interval <= 0 {
		interval = DefaultPollingInterval
	}
	log := util.GetLogger("watch").With().Str("path", path).Logger()

	backend := opts.Backend
	var loop loopFunc
	switch backend {
	case BackendNative:
		l, err := newNativeLoop(path, fn, log)
		if err != nil {
			return nil, err
		}
		loop = l
	case BackendSignal:
		loop = newSignalLoop(path, interval, fn, log)
	case BackendPoll:
		loop = newPollLoop(path, isDir, interval, fn, log)
	case "":
		// Capability probing, first match wins.
		if l, err := newNativeLoop(path, fn, log); err == nil {
			backend, loop = BackendNative, l
		} else if signalSupported() {
			log.Debug().Err(err).Msg("native event queue unavailable, using notification signals")
			backend, loop = BackendSignal, newSignalLoop(path, interval, fn, log)
		} else {
			log.Debug().Err(err).Msg("native event queue unavailable, falling back to polling")
			backend, loop = BackendPoll, newPollLoop(path, isDir, interval, fn, log)
		}
	default:
		return nil, fmt.Errorf("watch: unknown backend %q", opts.Backend)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watch{
		id:      uuid.New(),
		path:    path,
		backend: backend,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	registry.Store(w.id, w)
	log.Debug().Str("backend", string(backend)).Msg("watch registered")

	go func() {
		defer close(w.done)
		defer registry.Delete(w.id)
		loop(ctx)
	}()
	return w, nil
}

// safeInvoke shields the watch loop from the caller-supplied callback: a
// panicking callback is logged and must never terminate monitoring.
func safeInvoke(log zerolog.Logger, fn treefs.Callback, path string, op treefs.Op) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("affected", path).
				Str("op", string(op)).
				Any("panic", r).
				Msg("watch callback panicked")
		}
	}()
	fn(path, op)
}
