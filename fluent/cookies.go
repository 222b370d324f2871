package fluent

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// CookieStore is a mutable cookie jar attached to request executions.
// Implementations shared across concurrently executing requests must be
// internally thread-safe.
type CookieStore interface {
	Cookies(u *url.URL) []*http.Cookie
	SetCookies(u *url.URL, cookies []*http.Cookie)
	Clear()
}

// CookieJar is the default [CookieStore], backed by [net/http/cookiejar]
// with public-suffix-aware domain handling.
type CookieJar struct {
	mu  sync.RWMutex
	jar http.CookieJar
}

// NewCookieJar returns an empty public-suffix-aware cookie jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{jar: newJar()}
}

func newJar() http.CookieJar {
	// cookiejar.New never fails with a valid public suffix list.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

func (c *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.jar.Cookies(u)
}

func (c *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.jar.SetCookies(u, cookies)
}

// Clear drops all cookies by swapping in a fresh jar.
func (c *CookieJar) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.jar = newJar()
}
