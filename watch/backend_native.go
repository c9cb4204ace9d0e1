package watch

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/treefs/treefs"
)

// newNativeLoop opens the platform's change-notification queue on path. The
// handle is established here so an unavailable facility is detected at
// registration time and probing can move on to the next backend.
func newNativeLoop(path string, fn treefs.Callback, log zerolog.Logger) (loopFunc, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close() //nolint:errcheck
		return nil, err
	}
	return func(ctx context.Context) {
		defer w.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if op, mapped := mapNativeOp(ev.Op); mapped {
					safeInvoke(log, fn, ev.Name, op)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("event queue error")
			}
		}
	}, nil
}

// mapNativeOp translates platform action codes into the shared vocabulary.
// An item renamed in from elsewhere surfaces as a creation at the watched
// location, so the queue reports it as Create and it maps to CREATE; RENAME
// is only delivered for the name that went away.
func mapNativeOp(op fsnotify.Op) (treefs.Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return treefs.OpCreate, true
	case op.Has(fsnotify.Remove):
		return treefs.OpDelete, true
	case op.Has(fsnotify.Rename):
		return treefs.OpRename, true
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return treefs.OpUpdate, true
	}
	return "", false
}
