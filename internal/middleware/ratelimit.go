// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"kekkon/internal/response"
)

// RateLimiter admits at most limit requests per client IP within any
// trailing window. The server runs one for login and registration and one
// for the public RSVP form.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time // oldest first

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a limiter and its background sweep of idle clients.
// Call Stop to end the sweep.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
		stop:   make(chan struct{}),
	}
	go rl.sweepEvery(max(window, time.Minute))
	return rl
}

// Stop ends the background sweep. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// take records a hit for key when there is room. Otherwise it reports how
// long until the oldest hit leaves the window.
func (rl *RateLimiter) take(key string) (ok bool, retryAfter time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := trimBefore(rl.hits[key], now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.hits[key] = recent
		return false, recent[0].Add(rl.window).Sub(now)
	}
	rl.hits[key] = append(recent, now)
	return true, 0
}

// trimBefore drops the leading hits at or before cutoff.
func trimBefore(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

func (rl *RateLimiter) sweepEvery(d time.Duration) {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// sweep forgets clients with no hit inside the window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, hits := range rl.hits {
		if recent := trimBefore(hits, cutoff); len(recent) == 0 {
			delete(rl.hits, key)
		} else {
			rl.hits[key] = recent
		}
	}
}

// Middleware answers 429 rate_limited with a Retry-After in whole seconds
// once the caller's IP runs out of room.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, wait := rl.take(ip)
		if !ok {
			secs := max(1, int(math.Ceil(wait.Seconds())))
			slog.Info("rate limited", "ip", ip, "path", r.URL.Path, "retry_after", secs)
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			response.Error(w, http.StatusTooManyRequests, response.CodeRateLimited, "too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the leftmost X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
