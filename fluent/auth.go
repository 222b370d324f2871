package fluent

import (
	"strings"
	"sync"
)

// Wildcard values for [AuthScope] fields. An empty Host, Realm, or Scheme
// and AnyPort match any value during credential lookup.
const AnyPort = -1

// AuthScope identifies where a set of credentials applies. More specific
// scopes win over wildcard scopes when several match.
type AuthScope struct {
	Host   string
	Port   int
	Realm  string
	Scheme string
}

// NewAuthScope returns a scope covering any realm and any auth scheme
// on the given host.
func NewAuthScope(h Host) AuthScope {
	return AuthScope{Host: strings.ToLower(h.Name), Port: h.resolvedPort()}
}

// match scores how well s, as a registered scope, covers the requested
// scope. A negative score means no match; higher is more specific.
func (s AuthScope) match(req AuthScope) int {
	score := 0

	switch {
	case s.Scheme == "" || req.Scheme == "":
	case strings.EqualFold(s.Scheme, req.Scheme):
		score += 1
	default:
		return -1
	}

	switch {
	case s.Realm == "" || req.Realm == "":
	case s.Realm == req.Realm:
		score += 2
	default:
		return -1
	}

	switch {
	case s.Port == AnyPort || req.Port == AnyPort || s.Port == 0 || req.Port == 0:
	case s.Port == req.Port:
		score += 4
	default:
		return -1
	}

	switch {
	case s.Host == "" || req.Host == "":
	case strings.EqualFold(s.Host, req.Host):
		score += 8
	default:
		return -1
	}

	return score
}

// Credentials is an opaque username/password pair.
type Credentials struct {
	Username string
	Password string
}

// CredentialsStore maps auth scopes to credentials. Implementations shared
// across concurrently executing requests must be internally thread-safe.
type CredentialsStore interface {
	// Credentials returns the best-matching credentials for the scope.
	Credentials(scope AuthScope) (Credentials, bool)
	// SetCredentials registers credentials for a scope, replacing any
	// previous entry for the exact same scope.
	SetCredentials(scope AuthScope, creds Credentials)
	// Clear removes all registered credentials.
	Clear()
}

// MemoryCredentialsStore is the default in-memory, thread-safe
// [CredentialsStore].
type MemoryCredentialsStore struct {
	mu    sync.RWMutex
	creds map[AuthScope]Credentials
}

// NewMemoryCredentialsStore returns an empty in-memory store.
func NewMemoryCredentialsStore() *MemoryCredentialsStore {
	return &MemoryCredentialsStore{creds: make(map[AuthScope]Credentials)}
}

func (m *MemoryCredentialsStore) Credentials(scope AuthScope) (Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := -1
	var found Credentials
	for s, c := range m.creds {
		if score := s.match(scope); score > best {
			best = score
			found = c
		}
	}

	return found, best >= 0
}

func (m *MemoryCredentialsStore) SetCredentials(scope AuthScope, creds Credentials) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds[scope] = creds
}

func (m *MemoryCredentialsStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.creds)
}
