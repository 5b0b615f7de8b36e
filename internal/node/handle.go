package node

import (
	"context"
	"sync"

	gethnode "github.com/ethereum/go-ethereum/node"
	"github.com/rs/zerolog"

	"github.com/forgekit/anvilgo/internal/fork"
)

// Handle represents the running node. The orchestrator blocks on Await until
// the node stops or the context is cancelled.
type Handle struct {
	log   zerolog.Logger
	stack *gethnode.Node
	fork  *fork.Client

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newHandle(log zerolog.Logger, stack *gethnode.Node, forkClient *fork.Client) *Handle {
	h := &Handle{
		log:   log.With().Str("component", "node-handle").Logger(),
		stack: stack,
		fork:  forkClient,
		done:  make(chan struct{}),
	}
	go func() {
		stack.Wait()
		close(h.done)
	}()
	return h
}

// Await blocks until the node has stopped or ctx is cancelled. Cancellation
// closes the node and returns the close error, if any.
func (h *Handle) Await(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return h.Close()
	case <-h.done:
		return nil
	}
}

// Close stops the node and releases its resources. Idempotent.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		if h.fork != nil {
			h.fork.Close()
		}
		h.closeErr = h.stack.Close()
	})
	return h.closeErr
}

// Endpoint returns the HTTP-RPC endpoint the node listens on.
func (h *Handle) Endpoint() string {
	return h.stack.HTTPEndpoint()
}
