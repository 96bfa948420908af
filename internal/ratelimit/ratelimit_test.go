package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHostLimiter_SameHost_EnforcesRate(t *testing.T) {
	// 10 req/s with burst 1 means the second request waits ~100ms.
	limiter := NewHostLimiter(10, 1)
	ctx := context.Background()

	if err := limiter.limiterFor("api.lever.co").Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.limiterFor("api.lever.co").Wait(ctx); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestHostLimiter_DifferentHosts_NoCrossBlocking(t *testing.T) {
	limiter := NewHostLimiter(5, 1)
	ctx := context.Background()

	if err := limiter.limiterFor("boards.greenhouse.io").Wait(ctx); err != nil {
		t.Fatalf("greenhouse wait: %v", err)
	}

	// A different host must not be throttled by the first.
	start := time.Now()
	if err := limiter.limiterFor("api.lever.co").Wait(ctx); err != nil {
		t.Fatalf("lever wait: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed > 50*time.Millisecond {
		t.Errorf("expected lever wait to be near-instant, got %v", elapsed)
	}
}

func TestTransport_ThrottlesRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := &http.Client{
		Transport: NewTransport(NewHostLimiter(10, 1), nil),
	}

	start := time.Now()
	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
	}
	elapsed := time.Since(start)

	if hits.Load() != 2 {
		t.Fatalf("expected 2 requests to reach the server, got %d", hits.Load())
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected the second request to be delayed, elapsed %v", elapsed)
	}
}

func TestTransport_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	// Drain the only token so the next request has to wait a long time.
	limiter := NewHostLimiter(0.01, 1)
	client := &http.Client{Transport: NewTransport(limiter, nil)}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if _, err := client.Do(req); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}
