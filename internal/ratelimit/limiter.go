package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RateLimiter spaces upstream requests per host.
type RateLimiter interface {
	// Wait blocks until a request for the given URL can proceed.
	// If the context is cancelled before the rate limit allows, an error is returned.
	Wait(ctx context.Context, urlStr string) error

	// Allow reports whether a request for the given URL can proceed
	// immediately, consuming a token if so.
	Allow(urlStr string) bool
}

// DomainLimiter keeps one token bucket per host.
type DomainLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	perHost  rate.Limit
	burst    int
}

// NewDomainLimiter creates a new rate limiter with the specified per-host rate
func NewDomainLimiter(requestsPerSecond float64, burst int) *DomainLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 1
	}

	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait reserves a token for the URL's host and sleeps out the delay.
// Unparseable URLs pass straight through; the request itself will fail.
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	host := extractHost(urlStr)
	if host == "" {
		return nil
	}

	r := dl.getLimiter(host).Reserve()
	if !r.OK() {
		return fmt.Errorf("rate limit for %s cannot satisfy a single request", host)
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	log.Debug().Str("host", host).Dur("delay", delay).Msg("Waiting for rate limit")
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// Allow takes a token for the URL's host if one is available now.
func (dl *DomainLimiter) Allow(urlStr string) bool {
	host := extractHost(urlStr)
	if host == "" {
		return true
	}
	return dl.getLimiter(host).Allow()
}

func (dl *DomainLimiter) getLimiter(host string) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	limiter, exists := dl.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(dl.perHost, dl.burst)
		dl.limiters[host] = limiter
	}
	return limiter
}

func extractHost(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}

// Unlimited never blocks. Used when the rate limit is disabled.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context, urlStr string) error { return nil }
func (Unlimited) Allow(urlStr string) bool                         { return true }
