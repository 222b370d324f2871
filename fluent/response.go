package fluent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// maxErrBodySize caps the amount of response body read when building an
// error for an unexpected status code.
const maxErrBodySize = 4 << 10 // 4KB

// Response wraps the raw transport result of one execution and owns the
// body release obligation. Exactly one consuming method — [Response.Content],
// [Response.ContentExpecting], [Response.JSON], [Response.Discard],
// [Response.SaveContent], or [Response.Handle] — must be called, or the
// pooled connection backing the body will not return to the pool.
//
// A Response is not safe for concurrent use.
type Response struct {
	raw      *http.Response
	consumed bool
}

func newResponse(raw *http.Response) *Response {
	return &Response{raw: raw}
}

// StatusCode returns the response status code.
func (r *Response) StatusCode() int {
	return r.raw.StatusCode
}

// Header returns the response headers.
func (r *Response) Header() http.Header {
	return r.raw.Header
}

// Raw transfers ownership of the underlying [http.Response] to the caller,
// who becomes responsible for closing its body.
func (r *Response) Raw() *http.Response {
	r.consumed = true
	return r.raw
}

// Content reads the full body and releases the connection.
func (r *Response) Content() ([]byte, error) {
	if err := r.consume(); err != nil {
		return nil, err
	}
	defer r.close()

	b, err := io.ReadAll(r.raw.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return b, nil
}

// ContentExpecting reads the full body like [Response.Content], but fails
// with a [StatusError] when the status code differs from want. Error bodies
// are capped at 4KB.
func (r *Response) ContentExpecting(want int) ([]byte, error) {
	if r.raw.StatusCode != want {
		if err := r.consume(); err != nil {
			return nil, err
		}
		defer r.close()

		b, err := io.ReadAll(io.LimitReader(r.raw.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		return nil, &StatusError{
			StatusCode: r.raw.StatusCode,
			Body:       string(b),
			Err:        ErrUnexpectedStatusCode,
		}
	}

	return r.Content()
}

// JSON decodes the body into dest and releases the connection.
func (r *Response) JSON(dest any) error {
	if err := r.consume(); err != nil {
		return err
	}
	defer r.close()
	defer r.exhaust()

	if err := json.NewDecoder(r.raw.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// Discard drains and releases the body without reading it into memory.
func (r *Response) Discard() error {
	if err := r.consume(); err != nil {
		return err
	}
	defer r.close()

	if _, err := io.Copy(io.Discard, r.raw.Body); err != nil {
		return fmt.Errorf("discarding response body: %w", err)
	}

	return nil
}

// SaveContent streams the body to destPath. Data is written to a temp file
// in the destination directory and renamed into place on success; on any
// failure the temp file is removed and destPath is left untouched.
func (r *Response) SaveContent(destPath string) error {
	if destPath == "" {
		return errors.New("destPath must not be empty")
	}
	if err := r.consume(); err != nil {
		return err
	}
	defer r.close()

	file, err := os.CreateTemp(filepath.Dir(destPath), ".fluent-save-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if !successful {
			file.Close()           //nolint:errcheck
			os.Remove(file.Name()) //nolint:errcheck
		}
	}()

	n, err := io.Copy(file, r.raw.Body)
	if err != nil {
		return fmt.Errorf("copying response body: %w", err)
	}

	if r.raw.ContentLength >= 0 && n != r.raw.ContentLength {
		return fmt.Errorf("content length mismatch: expected %d bytes, got %d", r.raw.ContentLength, n)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(file.Name(), destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true

	return nil
}

// Handle invokes fn with the raw response and releases the body afterwards
// regardless of the outcome.
func (r *Response) Handle(fn func(*http.Response) error) error {
	if err := r.consume(); err != nil {
		return err
	}
	defer r.close()
	defer r.exhaust()

	return fn(r.raw)
}

func (r *Response) consume() error {
	if r.consumed {
		return ErrContentAlreadyConsumed
	}
	r.consumed = true

	return nil
}

// exhaust drains whatever fn or the decoder left unread so the
// connection can be reused.
func (r *Response) exhaust() {
	io.Copy(io.Discard, r.raw.Body) //nolint:errcheck
}

func (r *Response) close() {
	r.raw.Body.Close() //nolint:errcheck
}

// discardBody fully drains and closes a raw response body.
func discardBody(resp *http.Response) error {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		resp.Body.Close() //nolint:errcheck
		return err
	}

	return resp.Body.Close()
}
