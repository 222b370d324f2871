package fluent

import (
	"github.com/google/uuid"
)

// ExecContext is the per-call bundle of stores and caches attached to one
// request execution. A fresh context is assembled for every
// [Executor.Execute] call; the store references inside it are snapshots of
// the executor's configuration at the moment Execute was invoked.
type ExecContext struct {
	// ExchangeID uniquely identifies this execution for logging and tracing.
	ExchangeID string

	// CredentialsStore answers authentication challenges. Nil means no
	// credentials were configured.
	CredentialsStore CredentialsStore

	// AuthCache holds per-host auth scheme state for preemptive
	// authentication. Never nil for contexts assembled by an [Executor].
	AuthCache *AuthCache

	// CookieStore supplies and records cookies. Nil means cookie
	// management is disabled.
	CookieStore CookieStore
}

func newExecContext() *ExecContext {
	return &ExecContext{ExchangeID: uuid.New().String()}
}
