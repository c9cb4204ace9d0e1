package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/treefs/treefs"
)

// newPollLoop is the timed-sampling fallback when no native notification
// facility is available, and the backend tests force on any host.
func newPollLoop(path string, isDir bool, interval time.Duration, fn treefs.Callback, log zerolog.Logger) loopFunc {
	if isDir {
		return dirPollLoop(path, interval, fn, log)
	}
	return filePollLoop(path, interval, fn, log)
}

// filePollLoop samples the last-modified timestamp each interval. A change
// delivers UPDATE; a stat failure after the file existed delivers one DELETE
// and sampling resumes silently if the file reappears.
func filePollLoop(path string, interval time.Duration, fn treefs.Callback, log zerolog.Logger) loopFunc {
	// Baseline is sampled at registration time, before the loop starts.
	var last time.Time
	missing := true
	if info, err := os.Stat(path); err == nil {
		last, missing = info.ModTime(), false
	}
	return func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					if !missing {
						missing = true
						safeInvoke(log, fn, path, treefs.OpDelete)
					}
					continue
				}
				if missing {
					missing, last = false, info.ModTime()
					continue
				}
				if !info.ModTime().Equal(last) {
					last = info.ModTime()
					safeInvoke(log, fn, path, treefs.OpUpdate)
				}
			}
		}
	}
}

// dirPollLoop samples the set of child names each interval and diffs against
// the previous snapshot: one CREATE per newly-appeared name, one aggregate
// REMOVE when any names disappeared. Content changes to existing children
// are not detected by this backend.
func dirPollLoop(path string, interval time.Duration, fn treefs.Callback, log zerolog.Logger) loopFunc {
	// Baseline is sampled at registration time, before the loop starts.
	before, err := childNames(path)
	if err != nil {
		log.Warn().Err(err).Msg("initial directory sample failed")
		before = map[string]struct{}{}
	}
	return func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				after, err := childNames(path)
				if err != nil {
					log.Warn().Err(err).Msg("directory sample failed")
					continue
				}
				for name := range after {
					if _, ok := before[name]; !ok {
						safeInvoke(log, fn, filepath.Join(path, name), treefs.OpCreate)
					}
				}
				for name := range before {
					if _, ok := after[name]; !ok {
						safeInvoke(log, fn, path, treefs.OpRemove)
						break
					}
				}
				before = after
			}
		}
	}
}

func childNames(path string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}
	return names, nil
}

// degradedSignalLoop only sleeps; used when notification signals cannot be
// armed. It warns once so the silent watch is at least visible in logs.
func degradedSignalLoop(interval time.Duration, log zerolog.Logger, cause error) loopFunc {
	return func(ctx context.Context) {
		log.Warn().Err(cause).Msg("notification signals unavailable; watch loop is a no-op")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}
}
