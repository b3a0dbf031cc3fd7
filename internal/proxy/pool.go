// Package proxy rotates outbound requests across configured proxies.
package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// failCooldown is how long a failed proxy is skipped.
const failCooldown = 5 * time.Minute

// Pool hands out proxies round-robin, skipping ones marked failed.
type Pool struct {
	proxies []*url.URL
	index   int
	mu      sync.Mutex
	failed  map[string]time.Time
	now     func() time.Time
}

// Parse splits a comma-separated proxy list. Entries without a scheme
// default to http.
func Parse(list string) ([]*url.URL, error) {
	var out []*url.URL
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", raw)
		}
		out = append(out, u)
	}
	return out, nil
}

// NewPool creates a pool from a comma-separated proxy list.
func NewPool(list string) (*Pool, error) {
	proxies, err := Parse(list)
	if err != nil {
		return nil, err
	}
	return &Pool{
		proxies: proxies,
		failed:  make(map[string]time.Time),
		now:     time.Now,
	}, nil
}

// Len returns the number of configured proxies.
func (p *Pool) Len() int {
	return len(p.proxies)
}

// First returns the first configured proxy, for clients that accept only one.
func (p *Pool) First() string {
	if len(p.proxies) == 0 {
		return ""
	}
	return p.proxies[0].String()
}

// Next returns the next healthy proxy. When every proxy is cooling down the
// next one in order is returned anyway.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	start := p.index
	for {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		if failTime, ok := p.failed[proxy.Host]; ok {
			if p.now().Sub(failTime) < failCooldown {
				if p.index == start {
					return proxy
				}
				continue
			}
			delete(p.failed, proxy.Host)
		}
		return proxy
	}
}

// MarkFailed skips proxy for the cooldown period.
func (p *Pool) MarkFailed(proxy *url.URL) {
	if proxy == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy.Host] = p.now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy *url.URL) {
	if proxy == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy.Host)
}

type proxyKey struct{}

// ProxyFunc adapts the pool to http.Transport.Proxy. The proxy chosen by
// Transport for a request wins; otherwise the next one in rotation is used.
// An empty pool defers to the environment.
func (p *Pool) ProxyFunc() func(*http.Request) (*url.URL, error) {
	if p == nil || len(p.proxies) == 0 {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey{}).(*url.URL); ok {
			return u, nil
		}
		return p.Next(), nil
	}
}

// Transport routes each request through the next proxy of Pool and marks
// a proxy failed when its request fails at the transport level. Requests
// are never retried.
type Transport struct {
	Base *http.Transport
	Pool *Pool
}

// NewTransport installs the pool on base.
func NewTransport(base *http.Transport, pool *Pool) *Transport {
	base.Proxy = pool.ProxyFunc()
	return &Transport{Base: base, Pool: pool}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Pool == nil || t.Pool.Len() == 0 {
		return t.Base.RoundTrip(req)
	}

	proxyURL := t.Pool.Next()
	req = req.WithContext(context.WithValue(req.Context(), proxyKey{}, proxyURL))

	resp, err := t.Base.RoundTrip(req)
	switch {
	case err == nil:
		t.Pool.MarkHealthy(proxyURL)
	case req.Context().Err() == nil:
		t.Pool.MarkFailed(proxyURL)
	}
	return resp, err
}

// CloseIdleConnections forwards to the base transport.
func (t *Transport) CloseIdleConnections() {
	t.Base.CloseIdleConnections()
}
