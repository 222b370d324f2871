package fluent

import (
	"sync/atomic"
)

// Executor binds one underlying [Client] with a mutable credentials store,
// cookie store, and authentication cache, and attaches a snapshot of that
// state to every request it executes.
//
// The bound client is fixed at construction. Store references are replaced
// with single atomic swaps, so configuration racing an Execute call on the
// same instance yields the old or the new store, never a torn reference.
// See the package documentation for the happens-before requirement.
type Executor struct {
	client    Client
	authCache *AuthCache
	creds     atomic.Pointer[credentialsStoreRef]
	cookies   atomic.Pointer[cookieStoreRef]
}

// The stores are interfaces; boxing them behind a pointer keeps the
// replacement a single atomic word write.
type credentialsStoreRef struct{ store CredentialsStore }
type cookieStoreRef struct{ store CookieStore }

// NewExecutor returns an Executor bound to the process-wide shared pooled
// client, building it if this is the first use.
func NewExecutor() (*Executor, error) {
	client, err := shared.client(kindPooled)
	if err != nil {
		return nil, err
	}

	return newExecutor(client), nil
}

// NewExecutorFor returns an Executor bound to the given client. A nil
// client falls back to the shared pooled client.
func NewExecutorFor(client Client) (*Executor, error) {
	if client == nil {
		return NewExecutor()
	}

	return newExecutor(client), nil
}

// NewMultiplexedExecutor returns an Executor bound to the process-wide
// shared HTTP/2-multiplexed client, building it if this is the first use.
//
// This entry point is experimental and may be removed.
func NewMultiplexedExecutor() (*Executor, error) {
	client, err := shared.client(kindMultiplexed)
	if err != nil {
		return nil, err
	}

	return newExecutor(client), nil
}

func newExecutor(client Client) *Executor {
	return &Executor{
		client:    client,
		authCache: NewAuthCache(),
	}
}

// Use replaces the executor's credentials store wholesale, delegating store
// management to the caller. Subsequent calls overwrite, they do not merge.
func (e *Executor) Use(store CredentialsStore) *Executor {
	e.creds.Store(&credentialsStoreRef{store: store})
	return e
}

// UseCookies replaces the executor's cookie store wholesale.
func (e *Executor) UseCookies(store CookieStore) *Executor {
	e.cookies.Store(&cookieStoreRef{store: store})
	return e
}

// Auth registers credentials for a scope, creating a default in-memory
// store if none is set yet.
func (e *Executor) Auth(scope AuthScope, creds Credentials) *Executor {
	store := e.credentialsStore()
	if store == nil {
		store = NewMemoryCredentialsStore()
		e.creds.Store(&credentialsStoreRef{store: store})
	}
	store.SetCredentials(scope, creds)

	return e
}

// AuthHost registers credentials for the host's default scope.
func (e *Executor) AuthHost(host Host, creds Credentials) *Executor {
	return e.Auth(NewAuthScope(host), creds)
}

// AuthBasic registers username/password credentials for the host's
// default scope.
func (e *Executor) AuthBasic(host Host, username, password string) *Executor {
	return e.AuthHost(host, Credentials{Username: username, Password: password})
}

// AuthHostname parses the host string and registers credentials for its
// default scope. A malformed host yields an error wrapping [ErrInvalidHost]
// and mutates no state.
func (e *Executor) AuthHostname(hostname string, creds Credentials) (*Executor, error) {
	host, err := ParseHost(hostname)
	if err != nil {
		return e, err
	}

	return e.AuthHost(host, creds), nil
}

// AuthPreemptive arms preemptive authentication for the host: if
// credentials are registered for its default scope, a preemptive Basic
// scheme is stored in the auth cache so the next request sends them without
// waiting for a challenge. With no matching credentials this is a no-op.
func (e *Executor) AuthPreemptive(host Host) *Executor {
	store := e.credentialsStore()
	if store == nil {
		return e
	}

	creds, ok := store.Credentials(NewAuthScope(host))
	if !ok {
		return e
	}

	scheme := NewBasicScheme()
	scheme.InitPreemptive(creds)
	e.authCache.Put(host, scheme)

	return e
}

// AuthPreemptiveHostname is [Executor.AuthPreemptive] for a host string.
func (e *Executor) AuthPreemptiveHostname(hostname string) (*Executor, error) {
	host, err := ParseHost(hostname)
	if err != nil {
		return e, err
	}

	return e.AuthPreemptive(host), nil
}

// AuthPreemptiveProxy arms preemptive authentication for a proxy host.
func (e *Executor) AuthPreemptiveProxy(proxy Host) *Executor {
	return e.AuthPreemptive(proxy)
}

// AuthPreemptiveProxyHostname is [Executor.AuthPreemptiveProxy] for a
// host string.
func (e *Executor) AuthPreemptiveProxyHostname(proxy string) (*Executor, error) {
	return e.AuthPreemptiveHostname(proxy)
}

// ClearAuth clears the credentials store if one is set. It never creates
// a store.
func (e *Executor) ClearAuth() *Executor {
	if store := e.credentialsStore(); store != nil {
		store.Clear()
	}
	return e
}

// ClearCookies clears the cookie store if one is set. It never creates
// a store.
func (e *Executor) ClearCookies() *Executor {
	if store := e.cookieStore(); store != nil {
		store.Clear()
	}
	return e
}

// Execute runs the request through the bound client with a fresh execution
// context snapshotting the current credential, cookie, and auth-cache state.
//
// The returned [Response] owns the body release obligation: consume or
// discard it, or the pooled connection backing it will not be returned to
// the pool.
func (e *Executor) Execute(req *Request) (*Response, error) {
	execCtx := newExecContext()
	execCtx.AuthCache = e.authCache
	if store := e.credentialsStore(); store != nil {
		execCtx.CredentialsStore = store
	}
	if store := e.cookieStore(); store != nil {
		execCtx.CookieStore = store
	}

	raw, err := req.internalExecute(e.client, execCtx)
	if err != nil {
		return nil, err
	}

	return newResponse(raw), nil
}

func (e *Executor) credentialsStore() CredentialsStore {
	if ref := e.creds.Load(); ref != nil {
		return ref.store
	}
	return nil
}

func (e *Executor) cookieStore() CookieStore {
	if ref := e.cookies.Load(); ref != nil {
		return ref.store
	}
	return nil
}
