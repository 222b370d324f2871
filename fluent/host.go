package fluent

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Host identifies an origin that credentials or cached auth schemes apply to.
// Port 0 means the scheme default.
type Host struct {
	Scheme string
	Name   string
	Port   int
}

// ParseHost parses a host string into a [Host]. Accepted forms are
// "example.org", "example.org:8080", and "scheme://example.org[:port]".
// The scheme defaults to "http". A syntactically invalid host yields an
// error wrapping [ErrInvalidHost].
func ParseHost(s string) (Host, error) {
	if strings.TrimSpace(s) == "" {
		return Host{}, fmt.Errorf("%w: empty", ErrInvalidHost)
	}

	raw := s
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Host{}, fmt.Errorf("%w %q: %w", ErrInvalidHost, s, err)
	}

	name := u.Hostname()
	if name == "" || u.Path != "" || u.RawQuery != "" || u.User != nil {
		return Host{}, fmt.Errorf("%w %q", ErrInvalidHost, s)
	}
	if strings.ContainsAny(name, " \t") {
		return Host{}, fmt.Errorf("%w %q", ErrInvalidHost, s)
	}

	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Host{}, fmt.Errorf("%w %q: bad port", ErrInvalidHost, s)
		}
	}

	return Host{Scheme: u.Scheme, Name: name, Port: port}, nil
}

// NewHost returns an http Host with the default port.
func NewHost(name string) Host {
	return Host{Scheme: "http", Name: name}
}

// String renders the host in origin form, omitting a default port.
func (h Host) String() string {
	s := h.Scheme
	if s == "" {
		s = "http"
	}
	if h.Port == 0 || h.Port == defaultPort(s) {
		return s + "://" + h.Name
	}
	return s + "://" + net.JoinHostPort(h.Name, strconv.Itoa(h.Port))
}

// resolvedPort returns the explicit port, or the scheme default.
func (h Host) resolvedPort() int {
	if h.Port != 0 {
		return h.Port
	}
	return defaultPort(h.Scheme)
}

// key is the canonical AuthCache key for this host. Hosts that differ
// only in default-vs-explicit port map to the same key.
func (h Host) key() string {
	s := h.Scheme
	if s == "" {
		s = "http"
	}
	return s + "://" + net.JoinHostPort(strings.ToLower(h.Name), strconv.Itoa(h.resolvedPort()))
}

func defaultPort(scheme string) int {
	switch scheme {
	case "https":
		return 443
	default:
		return 80
	}
}

// hostFromURL derives the target Host of a request URL.
func hostFromURL(u *url.URL) Host {
	port := 0
	if p := u.Port(); p != "" {
		port, _ = strconv.Atoi(p)
	}
	return Host{Scheme: u.Scheme, Name: u.Hostname(), Port: port}
}
