package throttle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewRoundTripper_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		rps    int
		burst  int
		expErr error
	}{
		{
			name:   "Invalid RPS (zero)",
			rps:    0,
			burst:  10,
			expErr: ErrMustNotBeZero,
		},
		{
			name:   "Invalid RPS (negative)",
			rps:    -5,
			burst:  10,
			expErr: ErrMustNotBeZero,
		},
		{
			name:   "Invalid Burst (zero)",
			rps:    10,
			burst:  0,
			expErr: ErrMustNotBeZero,
		},
		{
			name:  "Valid input",
			rps:   10,
			burst: 20,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rt, err := NewRoundTripper(tc.rps, tc.burst, func() *slog.Logger { return nil }, http.DefaultTransport)

			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Errorf("exp err %v; got: %v", tc.expErr, err)
				}
			} else {
				if err != nil {
					t.Errorf("exp nil err, got: %v", err)
				}
				if rt == nil {
					t.Error("exp non-nil RoundTripper")
				}
			}
		})
	}
}

func TestThrottle_SlowsExhaustedBucket(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	rt, err := NewRoundTripper(2, 1, func() *slog.Logger { return nil }, http.DefaultTransport)
	if err != nil {
		t.Fatalf("creating round tripper: %v", err)
	}
	client := &http.Client{Transport: rt}

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Get(ts.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close() //nolint:errcheck
	}

	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("expected token bucket to slow requests, took %v", elapsed)
	}
}

func TestThrottle_CancelledContext(t *testing.T) {
	rt, err := NewRoundTripper(1, 1, func() *slog.Logger { return nil }, http.DefaultTransport)
	if err != nil {
		t.Fatalf("creating round tripper: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.org/", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if _, err := rt.RoundTrip(req); !errors.Is(err, ErrContextEnded) {
		t.Errorf("expected ErrContextEnded for a pre-cancelled context, got %v", err)
	}
}
