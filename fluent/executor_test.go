package fluent_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/Roberts-Chen/httpcomponents-client/fluent"
)

// stubClient records the execution contexts and requests it receives and
// answers with a canned response.
type stubClient struct {
	mu       sync.Mutex
	contexts []*fluent.ExecContext
	requests []*http.Request
	status   int
}

func (s *stubClient) ExecuteRequest(req *http.Request, execCtx *fluent.ExecContext) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contexts = append(s.contexts, execCtx)
	s.requests = append(s.requests, req)

	status := s.status
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func (s *stubClient) lastContext(t *testing.T) *fluent.ExecContext {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.contexts) == 0 {
		t.Fatal("no execution recorded")
	}
	return s.contexts[len(s.contexts)-1]
}

func newStubExecutor(t *testing.T) (*fluent.Executor, *stubClient) {
	t.Helper()

	stub := &stubClient{}
	exec, err := fluent.NewExecutorFor(stub)
	if err != nil {
		t.Fatalf("creating executor: %v", err)
	}
	return exec, stub
}

func getRequest(t *testing.T, url string) *fluent.Request {
	t.Helper()

	req, err := fluent.Get(context.Background(), url)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	return req
}

func mustExecute(t *testing.T, exec *fluent.Executor, req *fluent.Request) {
	t.Helper()

	resp, err := exec.Execute(req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := resp.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}
}

func TestExecutor_AuthThenPreemptive_PopulatesContext(t *testing.T) {
	exec, stub := newStubExecutor(t)
	host := fluent.NewHost("example.org")
	creds := fluent.Credentials{Username: "user", Password: "secret"}

	exec.AuthHost(host, creds).AuthPreemptive(host)
	mustExecute(t, exec, getRequest(t, "http://example.org/data"))

	execCtx := stub.lastContext(t)

	if execCtx.AuthCache == nil {
		t.Fatal("auth cache must always be attached")
	}
	scheme, ok := execCtx.AuthCache.Get(host)
	if !ok {
		t.Fatal("expected a cached scheme for example.org")
	}
	if _, armed := scheme.Authorization(); !armed {
		t.Error("cached scheme should be armed for preemptive auth")
	}

	if execCtx.CredentialsStore == nil {
		t.Fatal("expected a credentials store in the context")
	}
	got, ok := execCtx.CredentialsStore.Credentials(fluent.NewAuthScope(host))
	if !ok || got != creds {
		t.Errorf("expected %+v at scope example.org, got %+v ok=%v", creds, got, ok)
	}
}

func TestExecutor_AuthPreemptive_WithoutCredentialsIsNoop(t *testing.T) {
	exec, stub := newStubExecutor(t)
	host := fluent.NewHost("example.org")

	exec.AuthPreemptive(host)
	mustExecute(t, exec, getRequest(t, "http://example.org/"))

	execCtx := stub.lastContext(t)
	if _, ok := execCtx.AuthCache.Get(host); ok {
		t.Error("auth cache must stay unchanged without registered credentials")
	}
	if execCtx.CredentialsStore != nil {
		t.Error("no credentials store should be created")
	}
}

func TestExecutor_ClearAuth_WithoutStoreIsNoop(t *testing.T) {
	exec, stub := newStubExecutor(t)

	exec.ClearAuth()
	mustExecute(t, exec, getRequest(t, "http://example.org/"))

	if stub.lastContext(t).CredentialsStore != nil {
		t.Error("ClearAuth must not create a credentials store")
	}
}

func TestExecutor_ClearCookies_WithoutStoreIsNoop(t *testing.T) {
	exec, stub := newStubExecutor(t)

	exec.ClearCookies()
	mustExecute(t, exec, getRequest(t, "http://example.org/"))

	if stub.lastContext(t).CookieStore != nil {
		t.Error("ClearCookies must not create a cookie store")
	}
}

func TestExecutor_Use_ReplacesWholesale(t *testing.T) {
	exec, stub := newStubExecutor(t)

	storeA := fluent.NewMemoryCredentialsStore()
	scopeA := fluent.AuthScope{Host: "a.example.org"}
	storeA.SetCredentials(scopeA, fluent.Credentials{Username: "a"})

	storeB := fluent.NewMemoryCredentialsStore()

	exec.Use(storeA).Use(storeB)
	mustExecute(t, exec, getRequest(t, "http://example.org/"))

	if got := stub.lastContext(t).CredentialsStore; got != fluent.CredentialsStore(storeB) {
		t.Error("expected storeB to be the active store")
	}

	// storeA keeps its contents; the executor never touched it.
	if _, ok := storeA.Credentials(scopeA); !ok {
		t.Error("storeA must be untouched after replacement")
	}
}

func TestExecutor_Execute_SnapshotsStorePerCall(t *testing.T) {
	exec, stub := newStubExecutor(t)

	storeA := fluent.NewMemoryCredentialsStore()
	storeB := fluent.NewMemoryCredentialsStore()

	exec.Use(storeA)
	mustExecute(t, exec, getRequest(t, "http://example.org/"))

	exec.Use(storeB)
	mustExecute(t, exec, getRequest(t, "http://example.org/"))

	stub.mu.Lock()
	defer stub.mu.Unlock()

	if stub.contexts[0].CredentialsStore != fluent.CredentialsStore(storeA) {
		t.Error("first execution should observe storeA")
	}
	if stub.contexts[1].CredentialsStore != fluent.CredentialsStore(storeB) {
		t.Error("second execution should observe storeB")
	}
}

func TestExecutor_AuthHostname_InvalidHost(t *testing.T) {
	exec, stub := newStubExecutor(t)

	_, err := exec.AuthHostname("http://bad host", fluent.Credentials{Username: "u"})
	if !errors.Is(err, fluent.ErrInvalidHost) {
		t.Fatalf("expected ErrInvalidHost, got %v", err)
	}

	mustExecute(t, exec, getRequest(t, "http://example.org/"))
	if stub.lastContext(t).CredentialsStore != nil {
		t.Error("a failed AuthHostname must not mutate state")
	}
}

func TestExecutor_AuthPreemptiveHostname_InvalidHost(t *testing.T) {
	exec, _ := newStubExecutor(t)
	exec.AuthHost(fluent.NewHost("example.org"), fluent.Credentials{Username: "u"})

	if _, err := exec.AuthPreemptiveHostname("http://bad host"); !errors.Is(err, fluent.ErrInvalidHost) {
		t.Fatalf("expected ErrInvalidHost, got %v", err)
	}
	if _, err := exec.AuthPreemptiveProxyHostname("bad proxy"); !errors.Is(err, fluent.ErrInvalidHost) {
		t.Fatalf("expected ErrInvalidHost, got %v", err)
	}
}

func TestExecutor_FreshContextPerExecution(t *testing.T) {
	exec, stub := newStubExecutor(t)

	mustExecute(t, exec, getRequest(t, "http://example.org/"))
	mustExecute(t, exec, getRequest(t, "http://example.org/"))

	stub.mu.Lock()
	defer stub.mu.Unlock()

	first, second := stub.contexts[0], stub.contexts[1]
	if first == second {
		t.Error("each execution must get its own context")
	}
	if first.ExchangeID == second.ExchangeID {
		t.Error("exchange IDs must differ per execution")
	}
	if first.AuthCache != second.AuthCache {
		t.Error("the executor's auth cache is shared across executions")
	}
}

func TestExecutor_ClearAuth_ClearsExistingStore(t *testing.T) {
	exec, stub := newStubExecutor(t)
	host := fluent.NewHost("example.org")

	exec.AuthHost(host, fluent.Credentials{Username: "u"}).ClearAuth()

	// Arming preemptive auth now finds nothing, proving the store is empty.
	exec.AuthPreemptive(host)
	mustExecute(t, exec, getRequest(t, "http://example.org/"))

	if _, ok := stub.lastContext(t).AuthCache.Get(host); ok {
		t.Error("expected no cached scheme after ClearAuth")
	}
}

func TestExecutor_NilClientFallsBackToShared(t *testing.T) {
	exec, err := fluent.NewExecutorFor(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec == nil {
		t.Fatal("expected an executor")
	}

	other, err := fluent.NewExecutor()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other == nil {
		t.Fatal("expected an executor")
	}
}

func TestExecutor_ContextPropagatesToRequest(t *testing.T) {
	exec, stub := newStubExecutor(t)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	req, err := fluent.Get(ctx, "http://example.org/")
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	mustExecute(t, exec, req)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	if got := stub.requests[0].Context().Value(key{}); got != "v" {
		t.Errorf("expected request context to carry caller values, got %v", got)
	}
}
