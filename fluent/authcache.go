package fluent

import (
	"encoding/base64"
	"sync"
)

// AuthScheme is a per-host authentication state held in an [AuthCache].
type AuthScheme interface {
	// Name identifies the scheme, e.g. "Basic".
	Name() string
	// Authorization returns the Authorization header value to send
	// preemptively, or false if the scheme is not armed.
	Authorization() (string, bool)
}

// BasicScheme implements HTTP Basic authentication.
type BasicScheme struct {
	mu    sync.Mutex
	armed bool
	token string
}

// NewBasicScheme returns an unarmed Basic scheme.
func NewBasicScheme() *BasicScheme {
	return &BasicScheme{}
}

func (s *BasicScheme) Name() string { return "Basic" }

// InitPreemptive arms the scheme with credentials so that
// [BasicScheme.Authorization] produces a header without a prior challenge.
func (s *BasicScheme) InitPreemptive(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.armed = true
	s.token = basicToken(creds)
}

func (s *BasicScheme) Authorization() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.armed {
		return "", false
	}

	return "Basic " + s.token, true
}

func basicToken(creds Credentials) string {
	return base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))
}

// AuthCache maps hosts to authentication scheme state so that subsequent
// requests to the same origin can authenticate preemptively. It is safe for
// concurrent use.
type AuthCache struct {
	mu      sync.RWMutex
	entries map[string]AuthScheme
}

// NewAuthCache returns an empty cache.
func NewAuthCache() *AuthCache {
	return &AuthCache{entries: make(map[string]AuthScheme)}
}

// Put stores the scheme for the host's origin, replacing any previous entry.
func (c *AuthCache) Put(h Host, scheme AuthScheme) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[h.key()] = scheme
}

// Get returns the cached scheme for the host's origin.
func (c *AuthCache) Get(h Host) (AuthScheme, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scheme, ok := c.entries[h.key()]
	return scheme, ok
}

// Remove drops the entry for the host's origin, if any.
func (c *AuthCache) Remove(h Host) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, h.key())
}

// Clear drops all entries.
func (c *AuthCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
}
