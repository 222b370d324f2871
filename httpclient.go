// Package httpclient exposes the fluent execution facade entry points.
package httpclient

import (
	"github.com/Roberts-Chen/httpcomponents-client/fluent"
)

// NewExecutor returns an executor bound to the process-wide shared pooled
// client, building it lazily on first use.
func NewExecutor() (*fluent.Executor, error) {
	return fluent.NewExecutor()
}

// NewExecutorFor returns an executor bound to the given client; nil falls
// back to the shared pooled client.
func NewExecutorFor(client fluent.Client) (*fluent.Executor, error) {
	return fluent.NewExecutorFor(client)
}

// NewMultiplexedExecutor returns an executor bound to the shared
// HTTP/2-multiplexed client. Experimental.
func NewMultiplexedExecutor() (*fluent.Executor, error) {
	return fluent.NewMultiplexedExecutor()
}

// NewClient builds a custom pooled client with the provided options.
func NewClient(opts ...fluent.Option) (*fluent.PooledClient, error) {
	return fluent.NewClient(opts...)
}
