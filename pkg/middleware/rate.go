// Package middleware provides the HTTP middleware stack of the API.
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/response"
)

// bucket tracks a fixed-window request count for one client.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(max int, window time.Duration, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}

	b.count++
	return b.count <= max
}

// Limiter is a per-client fixed-window rate limiter.
type Limiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	trusted []*net.IPNet
}

// NewLimiter allows max requests per window for each client IP.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{max: max, window: window, buckets: map[string]*bucket{}}
}

// TrustProxies makes the limiter read X-Forwarded-For, but only for
// requests arriving from one of proxies (IPs or CIDRs). Without it the
// header is ignored and clients are keyed by their socket address.
func (l *Limiter) TrustProxies(proxies []string) error {
	nets := make([]*net.IPNet, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return fmt.Errorf("middleware: invalid proxy address %q", p)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			return fmt.Errorf("middleware: invalid proxy range %q: %w", p, err)
		}
		nets = append(nets, n)
	}
	l.trusted = nets
	return nil
}

// Allow reports whether key may proceed at now.
func (l *Limiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.allow(l.max, l.window, now)
}

// Evict drops buckets whose window has passed.
func (l *Limiter) Evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		b.mu.Lock()
		expired := now.After(b.resetAt)
		b.mu.Unlock()
		if expired {
			delete(l.buckets, key)
		}
	}
}

// Janitor evicts stale buckets every window until ctx is done.
func (l *Limiter) Janitor(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Evict(now)
		}
	}
}

// Middleware rejects clients over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(l.clientIP(r), time.Now()) {
			response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the socket address unless it belongs to a trusted proxy, in
// which case it is the right-most X-Forwarded-For hop that is not itself a
// trusted proxy. Hops further left are client supplied and never used.
func (l *Limiter) clientIP(r *http.Request) string {
	remote := remoteHost(r)
	if !l.isTrusted(remote) {
		return remote
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" || net.ParseIP(hop) == nil {
			continue
		}
		if !l.isTrusted(hop) {
			return hop
		}
	}
	return remote
}

func (l *Limiter) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range l.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// remoteHost is RemoteAddr without the port.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
