package shutdown_test

import (
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgekit/anvilgo/internal/shutdown"
	"github.com/forgekit/anvilgo/internal/testutils"
)

// exitRecorder stands in for os.Exit so interrupts don't kill the test
// process.
type exitRecorder struct {
	success atomic.Uint32
	forced  atomic.Uint32
}

func (r *exitRecorder) exit(code int) {
	if code == 0 {
		r.success.Add(1)
		return
	}
	r.forced.Add(1)
}

// TestConcurrentInterruptsCleanUpOnce verifies that many concurrently
// delivered interrupts produce exactly one cleanup and a single success exit.
func TestConcurrentInterruptsCleanUpOnce(t *testing.T) {
	var flushes atomic.Uint32
	rec := &exitRecorder{}

	coord := shutdown.NewCoordinator(testutils.Logger(t),
		func() { flushes.Add(1) },
		shutdown.WithExitFunc(rec.exit),
	)

	const interrupts = 16
	var wg sync.WaitGroup
	wg.Add(interrupts)
	for i := 0; i < interrupts; i++ {
		go func() {
			defer wg.Done()
			coord.Interrupt(syscall.SIGINT)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, flushes.Load(), "the fork cache must be flushed exactly once")
	require.EqualValues(t, 1, rec.success.Load(), "exactly one interrupt may take the success-exit path")
	require.EqualValues(t, interrupts-1, rec.forced.Load(),
		"every losing interrupt escalates to a forced exit")
}

// TestSecondInterruptForcesExitDuringStalledCleanup verifies the escalation
// policy: if the first cleanup stalls, a second interrupt still terminates
// the process.
func TestSecondInterruptForcesExitDuringStalledCleanup(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	rec := &exitRecorder{}

	coord := shutdown.NewCoordinator(testutils.Logger(t),
		func() {
			close(started)
			<-release
		},
		shutdown.WithExitFunc(rec.exit),
	)

	go coord.Interrupt(syscall.SIGINT)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first interrupt never reached the cleanup step")
	}

	// Cleanup is stalled; the second interrupt must not wait for it.
	coord.Interrupt(syscall.SIGINT)
	require.EqualValues(t, 1, rec.forced.Load(), "second interrupt must force a non-zero exit")
	require.EqualValues(t, 0, rec.success.Load(), "stalled cleanup has not exited yet")

	close(release)
	require.Eventually(t, func() bool { return rec.success.Load() == 1 },
		time.Second, 10*time.Millisecond, "released cleanup should finish with a success exit")
}

// TestNoForkSkipsStraightToExit verifies that without a fork capability the
// coordinator exits without attempting any cleanup.
func TestNoForkSkipsStraightToExit(t *testing.T) {
	rec := &exitRecorder{}
	coord := shutdown.NewCoordinator(testutils.Logger(t), nil, shutdown.WithExitFunc(rec.exit))

	coord.Interrupt(syscall.SIGTERM)
	require.EqualValues(t, 1, rec.success.Load())
	require.EqualValues(t, 0, rec.forced.Load())
}
