// Package fluent provides a fluent execution facade in front of a pooled
// HTTP transport. Callers issue one-off requests without managing connection
// pools, credentials, or cookie state themselves; a small number of expensive
// shared pooled clients is reused across the whole process.
//
// # Basic Usage
//
// Obtain an [Executor], configure it, and execute requests:
//
//	exec, err := fluent.NewExecutor()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	req, err := fluent.Get(ctx, "https://example.org/data")
//	resp, err := exec.Execute(req)
//	body, err := resp.Content()
//
// The first call to [NewExecutor] lazily builds a process-wide shared pooled
// client; subsequent executors reuse it. Supply your own client built with
// [NewClient] via [NewExecutorFor] to opt out of the shared pool.
//
// # Authentication
//
// Credentials are registered against an [AuthScope] and attached to every
// execution. [Executor.AuthPreemptive] arms preemptive authentication so
// credentials are sent without waiting for a challenge:
//
//	exec.AuthBasic(host, "user", "secret").AuthPreemptive(host)
//
// # Resource Ownership
//
// [Executor.Execute] transfers ownership of the response body to the returned
// [Response]. The body must be consumed or discarded — via [Response.Content],
// [Response.Discard], [Response.SaveContent], or [Response.Handle] — or the
// pooled connection backing it will not be returned to the pool.
//
// # Concurrency
//
// An Executor's fluent configuration methods are not synchronized against
// concurrent Execute calls on the same instance. Either configure an Executor
// fully before sharing it across goroutines, or confine it to one goroutine.
// Store replacement is a single atomic swap, so a racing Execute observes the
// old or the new store, never a torn reference.
package fluent
