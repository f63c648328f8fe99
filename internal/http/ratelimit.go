package http

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// writeLimiter caps ledger writes per client. Reads are never limited.
type writeLimiter struct {
	mu      sync.Mutex
	perMin  int
	now     func() time.Time
	clients map[string]*clientInfo
}

type clientInfo struct {
	windowStart time.Time
	requests    int
}

func newWriteLimiter(perMin int) *writeLimiter {
	return &writeLimiter{
		perMin:  perMin,
		now:     time.Now,
		clients: make(map[string]*clientInfo),
	}
}

// allow counts one write from clientIP in the current one-minute window.
func (rl *writeLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[clientIP]
	if !ok || now.Sub(client.windowStart) > time.Minute {
		rl.clients[clientIP] = &clientInfo{windowStart: now, requests: 1}
		rl.sweep(now)
		return true
	}
	client.requests++
	return client.requests <= rl.perMin
}

// sweep drops clients idle for ten minutes. Caller holds rl.mu.
func (rl *writeLimiter) sweep(now time.Time) {
	cutoff := now.Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.windowStart.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *writeLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || rl.perMin <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !rl.allow(clientIP(r)) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
				Header("Retry-After", strconv.Itoa(60)).
				Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr, which middleware.RealIP has
// already rewritten from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
