package ratelimit

import (
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter enforces a per-host request rate. Each hostname
// (api.lever.co, remotive.com, ...) gets its own token bucket so a
// burst against one board never slows the others.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing reqPerSec sustained requests
// per host with the given burst.
func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(reqPerSec),
		burst:    burst,
	}
}

// limiterFor returns the bucket for a host, creating it on first use.
func (l *HostLimiter) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.limiters[host] = lim
	return lim
}

// Transport is an http.RoundTripper that waits on the per-host limiter
// before letting a request through. Wrap the shared client's transport
// with it and every adapter is throttled without knowing about it.
type Transport struct {
	limiter *HostLimiter
	next    http.RoundTripper
}

// NewTransport wraps next with per-host rate limiting. A nil next uses
// http.DefaultTransport.
func NewTransport(limiter *HostLimiter, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{limiter: limiter, next: next}
}

var _ http.RoundTripper = (*Transport)(nil)

// RoundTrip blocks until the host's bucket allows the request, then
// delegates. Cancelling the request context unblocks the wait.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	if host == "" {
		host = "_"
	}
	if err := t.limiter.limiterFor(host).Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", host, err)
	}
	return t.next.RoundTrip(req)
}
