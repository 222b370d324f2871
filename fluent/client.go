package fluent

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Pooling policy applied to shared and default clients.
const (
	maxConnsPerRoute  = 100
	maxIdleConnsTotal = 200
	// keepAliveInterval is the TCP keep-alive probe interval, the closest
	// net/http analog of re-validating a pooled connection after a period
	// of inactivity.
	keepAliveInterval  = 10 * time.Second
	idleEvictionPeriod = 1 * time.Minute
	// multiplexedTimeout bounds a whole exchange on the multiplexed
	// shared client, which bridges concurrent executions over shared
	// HTTP/2 connections.
	multiplexedTimeout = 5 * time.Minute
)

// Client executes a single HTTP exchange using the supplied execution
// context. Implementations own connection pooling, TLS, and protocol
// framing; the [Executor] facade only orchestrates context attachment
// around them.
type Client interface {
	ExecuteRequest(req *http.Request, execCtx *ExecContext) (*http.Response, error)
}

// PooledClient is the default [Client] implementation, wrapping an
// [http.Client] over a bounded connection pool. It is safe for concurrent
// use and intended to be long-lived; multiple Executors may share one.
type PooledClient struct {
	hc     *http.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// NewClient builds a PooledClient with the default pooling policy
// (100 connections per route, 200 idle total, 1 minute idle eviction),
// customizable via functional options.
func NewClient(optFns ...Option) (*PooledClient, error) {
	client := &PooledClient{
		hc:     &http.Client{},
		logger: slog.Default(),
		tracer: newNoopTracer(),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.client != nil {
		client.hc = opts.client
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.timeout != nil {
		client.hc.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = newPooledTransport()
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := newThrottleTransport(opts.throttle.rps, opts.throttle.burst, client, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.hc.Transport = transport

	return client, nil
}

// newPooledTransport applies the default pooling policy on top of a clean
// pooled transport.
func newPooledTransport() *http.Transport {
	t := cleanhttp.DefaultPooledTransport()
	t.MaxConnsPerHost = maxConnsPerRoute
	t.MaxIdleConns = maxIdleConnsTotal
	t.MaxIdleConnsPerHost = maxConnsPerRoute
	t.IdleConnTimeout = idleEvictionPeriod
	t.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: keepAliveInterval,
	}).DialContext

	return t
}

// ExecuteRequest sends one request through the pool, applying the cookie,
// preemptive-auth, and challenge-response state carried in execCtx.
//
// Ownership of the returned response body passes to the caller; the backing
// connection is not released to the pool until the body is consumed or
// discarded.
func (p *PooledClient) ExecuteRequest(req *http.Request, execCtx *ExecContext) (*http.Response, error) {
	if execCtx == nil {
		execCtx = newExecContext()
	}

	ctx, span := p.tracer.Start(req.Context(), "fluent.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.Redacted()),
		attribute.String("exchange.id", execCtx.ExchangeID),
	)

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	target := hostFromURL(req.URL)

	if execCtx.CookieStore != nil {
		for _, cookie := range execCtx.CookieStore.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}

	preemptive := false
	if execCtx.AuthCache != nil && req.Header.Get("Authorization") == "" {
		if scheme, ok := execCtx.AuthCache.Get(target); ok {
			if header, armed := scheme.Authorization(); armed {
				req.Header.Set("Authorization", header)
				preemptive = true
			}
		}
	}

	resp, err := p.hc.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("executing request: %w", err)
	}

	storeCookies(execCtx, req, resp)

	if resp.StatusCode == http.StatusUnauthorized && !preemptive {
		if retried, ok := p.answerChallenge(req, target, execCtx); ok {
			p.drain(resp)
			resp = retried
			storeCookies(execCtx, req, resp)
		}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return resp, nil
}

// answerChallenge retries the request once with Basic credentials from the
// context's store. The successful scheme is written back into the AuthCache
// so later requests to the same origin authenticate preemptively. Returns
// false if no credentials match, the request body cannot be replayed, or the
// retry itself fails; the original 401 response stays untouched and readable
// in every false case — only the caller releases it, and only when adopting
// the retried response.
func (p *PooledClient) answerChallenge(req *http.Request, target Host, execCtx *ExecContext) (*http.Response, bool) {
	if execCtx.CredentialsStore == nil {
		return nil, false
	}

	creds, ok := execCtx.CredentialsStore.Credentials(NewAuthScope(target))
	if !ok {
		return nil, false
	}

	retry := req.Clone(req.Context())
	if req.Body != nil {
		if req.GetBody == nil {
			return nil, false
		}
		body, err := req.GetBody()
		if err != nil {
			p.logger.Error("replaying request body for auth challenge", "error", err)
			return nil, false
		}
		retry.Body = body
	}

	scheme := NewBasicScheme()
	scheme.InitPreemptive(creds)
	header, _ := scheme.Authorization()
	retry.Header.Set("Authorization", header)

	retried, err := p.hc.Do(retry)
	if err != nil {
		p.logger.Error("retrying request after auth challenge", "error", err)
		return nil, false
	}

	if retried.StatusCode != http.StatusUnauthorized && execCtx.AuthCache != nil {
		execCtx.AuthCache.Put(target, scheme)
	}

	return retried, true
}

// storeCookies writes a response's Set-Cookie headers into the context's
// cookie store. Called for every response adopted as the execution result,
// including an authenticated retry.
func storeCookies(execCtx *ExecContext, req *http.Request, resp *http.Response) {
	if execCtx.CookieStore == nil {
		return
	}
	if cookies := resp.Cookies(); len(cookies) > 0 {
		execCtx.CookieStore.SetCookies(req.URL, cookies)
	}
}

// drain releases a response we are replacing so its connection returns to
// the pool.
func (p *PooledClient) drain(resp *http.Response) {
	if err := discardBody(resp); err != nil {
		p.logger.Error("discarding intermediate response body", "error", err)
	}
}

// userAgent is an http.RoundTripper, enabling a persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
