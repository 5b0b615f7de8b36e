// Package shutdown bridges OS interrupt delivery into a one-shot
// cleanup-then-exit sequence.
package shutdown

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"
)

// forcedExitCode is returned when a second interrupt aborts a stalled
// cleanup. 130 follows the 128+SIGINT shell convention.
const forcedExitCode = 130

// Coordinator turns asynchronously delivered interrupts into exactly one
// cleanup followed by a process exit. The atomic counter is the single
// synchronization point between the interrupt path and the node's tasks: the
// caller that observes a zero pre-increment value is the unique first signal
// and runs the cleanup; every later interrupt observes non-zero and instead
// forces an immediate exit, so a stalled cleanup can never wedge the process
// beyond a second Ctrl-C.
//
// The counter is owned by the Coordinator value, not by package state, so
// each armed run sequence has its own shutdown cell.
type Coordinator struct {
	log     zerolog.Logger
	flush   func()
	exit    func(int)
	fired   atomic.Uint32
	signals chan os.Signal
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithExitFunc replaces os.Exit, for tests.
func WithExitFunc(exit func(int)) Option {
	return func(c *Coordinator) { c.exit = exit }
}

// NewCoordinator creates a Coordinator that runs flush before exiting.
// A nil flush (the node is not in fork mode) skips straight to termination.
func NewCoordinator(log zerolog.Logger, flush func(), opts ...Option) *Coordinator {
	c := &Coordinator{
		log:   log.With().Str("component", "shutdown").Logger(),
		flush: flush,
		exit:  os.Exit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Arm installs the interrupt listener. It must be called only after the node
// runtime exists: the orchestrator arms the coordinator last, so no interrupt
// is acted upon before there is anything to clean up. Each delivered signal
// is handled on its own goroutine to mirror concurrent delivery; Interrupt
// serializes them through the counter.
func (c *Coordinator) Arm() {
	c.signals = make(chan os.Signal, 2)
	signal.Notify(c.signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for sig := range c.signals {
			go c.Interrupt(sig)
		}
	}()
}

// Interrupt handles one delivered signal. The first caller flushes the fork
// cache (if any) and exits with success; concurrent and subsequent callers
// observe a non-zero pre-increment value and force a non-zero exit instead.
func (c *Coordinator) Interrupt(sig os.Signal) {
	if prev := c.fired.Add(1) - 1; prev != 0 {
		c.log.Warn().Str("signal", sig.String()).Msg("cleanup already in progress, forcing exit")
		c.exit(forcedExitCode)
		return
	}

	c.log.Info().Str("signal", sig.String()).Msg("received shutdown signal, shutting down")
	if c.flush != nil {
		c.flush()
	}
	c.exit(0)
}
