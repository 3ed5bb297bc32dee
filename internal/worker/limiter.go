package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const defaultBurst = 5

// Limiter keeps one token bucket per backend host. Requests to different
// hosts never delay each other.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter creates a limiter allowing requestsPerSecond per host.
// A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = defaultBurst
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

// Wait blocks until the host of endpoint has a token or ctx ends. A wait
// that cannot finish before the ctx deadline fails with context.DeadlineExceeded.
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	host := HostKey(endpoint)
	if err := l.bucket(host).Wait(ctx); err != nil {
		if ctx.Err() == nil {
			// rate.Limiter refuses early when the token lands past the deadline
			return fmt.Errorf("rate limit %s: %v: %w", host, err, context.DeadlineExceeded)
		}
		return fmt.Errorf("rate limit %s: %w", host, err)
	}
	return nil
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[host]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[host] = b
	}
	return b
}

// HostKey returns the lower-cased host[:port] of endpoint. Values that do not
// parse as absolute URLs ("localhost:11434") are used as given.
func HostKey(endpoint string) string {
	raw := strings.TrimSpace(endpoint)
	if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
		return strings.ToLower(parsed.Host)
	}
	return strings.ToLower(strings.TrimSuffix(raw, "/"))
}
