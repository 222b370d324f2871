package fluent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one HTTP exchange: method, target, headers, and body.
// Build one with [NewRequest] or a method helper, then hand it to
// [Executor.Execute].
type Request struct {
	req *http.Request
}

// NewRequest instantiates a Request for the given method and URL.
// Content-Type defaults to "application/json" when a payload is supplied.
func NewRequest(ctx context.Context, method, rawURL string, opts ...RequestOption) (*Request, error) {
	var settings requestOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	contentType := ""
	switch {
	case settings.payload != nil:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(settings.payload); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
		body = &buf
		contentType = "application/json"
	case settings.form != nil:
		body = strings.NewReader(settings.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case settings.body != nil:
		body = settings.body
		contentType = settings.bodyContentType
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	if len(settings.query) > 0 {
		q := req.URL.Query()
		for k, v := range settings.query {
			q.Add(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	for _, cookie := range settings.cookies {
		req.AddCookie(cookie)
	}

	if settings.contentType != nil {
		contentType = *settings.contentType
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for k, v := range settings.headers {
		for _, element := range v {
			req.Header.Add(k, element)
		}
	}

	return &Request{req: req}, nil
}

// Get builds a GET request.
func Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Request, error) {
	return NewRequest(ctx, http.MethodGet, rawURL, opts...)
}

// Post builds a POST request.
func Post(ctx context.Context, rawURL string, opts ...RequestOption) (*Request, error) {
	return NewRequest(ctx, http.MethodPost, rawURL, opts...)
}

// Put builds a PUT request.
func Put(ctx context.Context, rawURL string, opts ...RequestOption) (*Request, error) {
	return NewRequest(ctx, http.MethodPut, rawURL, opts...)
}

// Patch builds a PATCH request.
func Patch(ctx context.Context, rawURL string, opts ...RequestOption) (*Request, error) {
	return NewRequest(ctx, http.MethodPatch, rawURL, opts...)
}

// Delete builds a DELETE request.
func Delete(ctx context.Context, rawURL string, opts ...RequestOption) (*Request, error) {
	return NewRequest(ctx, http.MethodDelete, rawURL, opts...)
}

// Head builds a HEAD request.
func Head(ctx context.Context, rawURL string, opts ...RequestOption) (*Request, error) {
	return NewRequest(ctx, http.MethodHead, rawURL, opts...)
}

// Raw exposes the underlying [http.Request].
func (r *Request) Raw() *http.Request {
	return r.req
}

// internalExecute is the execution hook used by [Executor.Execute].
func (r *Request) internalExecute(c Client, execCtx *ExecContext) (*http.Response, error) {
	return c.ExecuteRequest(r.req, execCtx)
}

// RequestOption is a functional option for [NewRequest].
type RequestOption func(*requestOpts) error

type requestOpts struct {
	payload         any
	form            url.Values
	body            io.Reader
	bodyContentType string
	contentType     *string
	cookies         []*http.Cookie
	headers         map[string][]string
	query           map[string]string
}

func (r requestOpts) exclusiveBody() bool {
	return r.payload != nil || r.form != nil || r.body != nil
}

// WithPayload sets the JSON-encoded request body.
func WithPayload(body any) RequestOption {
	return func(opts *requestOpts) error {
		if opts.exclusiveBody() {
			return errors.New("request body already set")
		}
		opts.payload = body

		return nil
	}
}

// WithValidatedPayload validates body against its struct tags before
// setting it as the JSON-encoded request body. Validation failures surface
// as [FieldErrors] and nothing is sent.
func WithValidatedPayload(body any) RequestOption {
	return func(opts *requestOpts) error {
		if err := Validate(body); err != nil {
			return fmt.Errorf("validating payload: %w", err)
		}
		if opts.exclusiveBody() {
			return errors.New("request body already set")
		}
		opts.payload = body

		return nil
	}
}

// WithForm sets a form-encoded request body.
func WithForm(form url.Values) RequestOption {
	return func(opts *requestOpts) error {
		if opts.exclusiveBody() {
			return errors.New("request body already set")
		}
		opts.form = form

		return nil
	}
}

// WithBody sets a raw request body and its content type.
func WithBody(body io.Reader, contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if opts.exclusiveBody() {
			return errors.New("request body already set")
		}
		opts.body = body
		opts.bodyContentType = contentType

		return nil
	}
}

// WithContentType overrides the Content-Type header.
func WithContentType(contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}
		opts.contentType = &contentType

		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		opts.headers = headers

		return nil
	}
}

// WithHeader adds a single header to the outgoing request.
func WithHeader(key, value string) RequestOption {
	return func(opts *requestOpts) error {
		if opts.headers == nil {
			opts.headers = make(map[string][]string)
		}
		opts.headers[key] = append(opts.headers[key], value)

		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request, in
// addition to any supplied by the executor's cookie store.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(opts *requestOpts) error {
		opts.cookies = cookies

		return nil
	}
}

// WithQuery appends query parameters to the request URL.
func WithQuery(queryKV map[string]string) RequestOption {
	return func(opts *requestOpts) error {
		opts.query = queryKV

		return nil
	}
}
