//go:build linux

package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treefs/treefs"
)

// TestSignal_ArmAndCancel arms dnotify on a real directory and checks the
// loop runs and stops cooperatively. Delivery itself is kernel-timing
// dependent, so only the arm/cancel contract is asserted here.
func TestSignal_ArmAndCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := Register(dir, true, func(string, treefs.Op) {}, Options{
		PollingInterval: testInterval,
		Backend:         BackendSignal,
	})
	require.NoError(t, err)
	assert.Equal(t, BackendSignal, w.Backend())

	w.Cancel()
	select {
	case <-w.Done():
	case <-time.After(20 * testInterval):
		t.Fatal("signal loop did not stop after cancel")
	}
}

// TestSignal_DnotifyFlagValues pins the locally defined <fcntl.h> constants
// to the kernel ABI values so a refactor cannot silently change what gets
// armed.
func TestSignal_DnotifyFlagValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0x2, dnModify)
	assert.Equal(t, 0x4, dnCreate)
	assert.Equal(t, 0x80000000, dnMultishot)
}
