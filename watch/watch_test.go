package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treefs/treefs"
)

const testInterval = 25 * time.Millisecond

// eventRecorder collects callback invocations thread-safely.
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	path string
	op   treefs.Op
}

func (r *eventRecorder) callback(path string, op treefs.Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{path: path, op: op})
}

func (r *eventRecorder) snapshot() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

func (r *eventRecorder) count(op treefs.Op) int {
	n := 0
	for _, e := range r.snapshot() {
		if e.op == op {
			n++
		}
	}
	return n
}

// bumpMtime moves the file's timestamps forward far enough that a sampling
// loop cannot miss the change.
func bumpMtime(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
}

func registerPollWatch(t *testing.T, path string, isDir bool, fn treefs.Callback) *Watch {
	t.Helper()
	w, err := Register(path, isDir, fn, Options{
		PollingInterval: testInterval,
		Backend:         BackendPoll,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		w.Cancel()
		<-w.Done()
	})
	return w
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	_, err := Register("", false, func(string, treefs.Op) {}, Options{})
	assert.Error(t, err)

	_, err = Register(t.TempDir(), true, nil, Options{})
	assert.Error(t, err)

	_, err = Register(t.TempDir(), true, func(string, treefs.Op) {}, Options{Backend: "bogus"})
	assert.Error(t, err)
}

func TestRegister_ReturnsImmediately(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	start := time.Now()
	w := registerPollWatch(t, dir, true, func(string, treefs.Op) {})
	assert.Less(t, time.Since(start), 10*testInterval, "registration must not block on the watch loop")
	assert.Equal(t, BackendPoll, w.Backend())
}

func TestPoll_FileUpdate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "watched.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	rec := &eventRecorder{}
	registerPollWatch(t, path, false, rec.callback)

	bumpMtime(t, path)

	// Exactly one UPDATE for one modification...
	require.Eventually(t, func() bool {
		return rec.count(treefs.OpUpdate) == 1
	}, 20*testInterval, testInterval/5)

	// ...and unchanged intervals deliver nothing further
	time.Sleep(4 * testInterval)
	assert.Equal(t, 1, rec.count(treefs.OpUpdate))

	for _, e := range rec.snapshot() {
		assert.Equal(t, path, e.path)
	}
}

func TestPoll_FileVanishedDeliversDelete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "watched.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	rec := &eventRecorder{}
	registerPollWatch(t, path, false, rec.callback)

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		return rec.count(treefs.OpDelete) == 1
	}, 20*testInterval, testInterval/5)

	// The delete is reported once, not once per interval
	time.Sleep(4 * testInterval)
	assert.Equal(t, 1, rec.count(treefs.OpDelete))
}

func TestPoll_DirectoryCreate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &eventRecorder{}
	registerPollWatch(t, dir, true, rec.callback)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		return rec.count(treefs.OpCreate) == 1
	}, 20*testInterval, testInterval/5)

	events := rec.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, filepath.Join(dir, "new.txt"), events[0].path, "CREATE carries the joined child path")
}

func TestPoll_DirectoryRemoveAggregate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o644))

	rec := &eventRecorder{}
	registerPollWatch(t, dir, true, rec.callback)

	// Remove both within one interval: REMOVE is aggregated per sample
	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
	require.NoError(t, os.Remove(filepath.Join(dir, "b.txt")))

	require.Eventually(t, func() bool {
		return rec.count(treefs.OpRemove) >= 1
	}, 20*testInterval, testInterval/5)

	time.Sleep(4 * testInterval)
	assert.Equal(t, 1, rec.count(treefs.OpRemove), "disappeared names aggregate to one REMOVE per interval")
}

func TestCancel_StopsDelivery(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "watched.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var calls atomic.Int64
	w := registerPollWatch(t, path, false, func(string, treefs.Op) {
		calls.Add(1)
	})

	w.Cancel()
	select {
	case <-w.Done():
	case <-time.After(20 * testInterval):
		t.Fatal("watch loop did not stop after cancel")
	}

	bumpMtime(t, path)
	time.Sleep(4 * testInterval)
	assert.Zero(t, calls.Load(), "no delivery after cancellation")

	// Cancel is safe to call repeatedly
	w.Cancel()
}

func TestRegistry_TracksActiveWatches(t *testing.T) {
	dir := t.TempDir()

	before := Active()
	w := registerPollWatch(t, dir, true, func(string, treefs.Op) {})
	assert.Equal(t, before+1, Active())

	w.Cancel()
	<-w.Done()
	require.Eventually(t, func() bool {
		return Active() == before
	}, 20*testInterval, testInterval/5)
}

func TestCallbackPanicDoesNotKillLoop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &eventRecorder{}
	panicked := false
	registerPollWatch(t, dir, true, func(path string, op treefs.Op) {
		rec.callback(path, op)
		if !panicked {
			panicked = true
			panic("bad callback")
		}
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644))
	require.Eventually(t, func() bool {
		return rec.count(treefs.OpCreate) == 1
	}, 20*testInterval, testInterval/5)

	// The loop survives the panic and keeps delivering
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o644))
	require.Eventually(t, func() bool {
		return rec.count(treefs.OpCreate) == 2
	}, 20*testInterval, testInterval/5)
}

// TestSignal_DegradesWithoutCrashing forces the signal backend on a path it
// cannot arm; the contract is a warned sleep loop, never a failure.
func TestSignal_DegradesWithoutCrashing(t *testing.T) {
	t.Parallel()

	w, err := Register(filepath.Join(t.TempDir(), "missing"), false,
		func(string, treefs.Op) {}, Options{
			PollingInterval: testInterval,
			Backend:         BackendSignal,
		})
	require.NoError(t, err)
	assert.Equal(t, BackendSignal, w.Backend())

	w.Cancel()
	select {
	case <-w.Done():
	case <-time.After(20 * testInterval):
		t.Fatal("degraded signal loop did not stop after cancel")
	}
}

func TestProbe_SelectsABackend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := Register(dir, true, func(string, treefs.Op) {}, Options{
		PollingInterval: testInterval,
	})
	require.NoError(t, err)
	defer func() {
		w.Cancel()
		<-w.Done()
	}()

	assert.Contains(t, []Backend{BackendNative, BackendSignal, BackendPoll}, w.Backend())
	assert.NotEmpty(t, w.ID().String())
	assert.Equal(t, dir, w.Path())
}
