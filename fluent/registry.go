package fluent

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/net/http2"
)

// clientKind selects which process-wide shared client a registry slot holds.
type clientKind int

const (
	kindPooled clientKind = iota
	kindMultiplexed
	kindCount
)

// registry holds at most one shared client of each kind for the whole
// process, built lazily on first use.
//
// The fast path is a lock-free atomic load; each slot is written exactly
// once, under the registry lock, before being published. Construction
// failure leaves the slot empty so a later caller retries.
type registry struct {
	mu    sync.Mutex
	build func(clientKind) (*PooledClient, error)
	slots [kindCount]atomic.Pointer[PooledClient]
}

// shared is the process-wide registry backing [NewExecutor] and
// [NewMultiplexedExecutor].
var shared = &registry{build: buildSharedClient}

func (r *registry) client(kind clientKind) (*PooledClient, error) {
	if c := r.slots[kind].Load(); c != nil {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have won the race between the fast-path
	// check and the lock acquisition.
	if c := r.slots[kind].Load(); c != nil {
		return c, nil
	}

	c, err := r.build(kind)
	if err != nil {
		return nil, fmt.Errorf("building shared client: %w", err)
	}
	r.slots[kind].Store(c)

	return c, nil
}

// buildSharedClient constructs a shared client with the fixed pooling policy.
func buildSharedClient(kind clientKind) (*PooledClient, error) {
	switch kind {
	case kindMultiplexed:
		return newMultiplexedClient()
	default:
		return NewClient()
	}
}

// newMultiplexedClient builds a client that multiplexes concurrent
// executions over shared HTTP/2 connections, bounded by a 5 minute
// per-exchange timeout.
func newMultiplexedClient() (*PooledClient, error) {
	transport := newPooledTransport()
	if err := http2.ConfigureTransport(transport); err != nil {
		transport.CloseIdleConnections()
		return nil, fmt.Errorf("enabling http2 multiplexing: %w", err)
	}

	return NewClient(WithHTTPClient(&http.Client{
		Transport: transport,
		Timeout:   multiplexedTimeout,
	}))
}
