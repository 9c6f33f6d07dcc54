// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// HTTP middleware for the marking service: rate limiting, security
// headers, request logging, and panic recovery.

package server

import (
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ============================================================================
// PER-CLIENT RATE LIMITER
// ============================================================================

// limiterIdleTimeout is how long a client's limiter may sit unused before
// the cleanup pass drops it.
const limiterIdleTimeout = 30 * time.Minute

// ClientLimiter enforces a token bucket per client IP. A zero or negative
// rate disables limiting entirely.
type ClientLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
}

// NewClientLimiter creates a ClientLimiter allowing rps sustained requests
// per second with the given burst per client.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	cl := &ClientLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
	}

	if cl.rps > 0 {
		// SECURITY: Bound the limiter map so a client cycling source
		// addresses cannot exhaust memory.
		go cl.cleanupLoop()
	}

	return cl
}

// DefaultClientLimiter returns a ClientLimiter with the default settings:
// 20 requests per second sustained, burst of 40.
func DefaultClientLimiter() *ClientLimiter {
	return NewClientLimiter(20, 40)
}

// Allow reports whether a request from the given client IP may proceed.
func (cl *ClientLimiter) Allow(ip string) bool {
	if cl.rps <= 0 {
		return true
	}
	return cl.limiter(ip).Allow()
}

// limiter returns the rate limiter for a client, creating one if needed.
func (cl *ClientLimiter) limiter(ip string) *rate.Limiter {
	cl.mu.RLock()
	lim, ok := cl.limiters[ip]
	cl.mu.RUnlock()

	if ok {
		cl.mu.Lock()
		cl.lastSeen[ip] = time.Now()
		cl.mu.Unlock()
		return lim
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring the write lock
	if lim, ok = cl.limiters[ip]; ok {
		return lim
	}

	lim = rate.NewLimiter(cl.rps, cl.burst)
	cl.limiters[ip] = lim
	cl.lastSeen[ip] = time.Now()
	return lim
}

// cleanupLoop periodically drops limiters for clients that have gone idle.
func (cl *ClientLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cl.sweepIdle(time.Now().Add(-limiterIdleTimeout))
	}
}

// sweepIdle removes limiters last seen before the cutoff.
func (cl *ClientLimiter) sweepIdle(cutoff time.Time) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for ip, seen := range cl.lastSeen {
		if seen.Before(cutoff) {
			delete(cl.limiters, ip)
			delete(cl.lastSeen, ip)
		}
	}
}

// ClientCount returns the number of clients currently tracked.
func (cl *ClientLimiter) ClientCount() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.limiters)
}

// RateLimitMiddleware returns HTTP middleware that enforces per-client
// rate limiting.
//
// Returns 429 Too Many Requests when a client's bucket is empty.
func RateLimitMiddleware(limiter *ClientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r)

			if !limiter.Allow(clientIP) {
				w.Header().Set("Retry-After", "1")
				log.Printf("RATE_LIMIT_EXCEEDED | ip=%s", clientIP)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// REQUEST LOGGING MIDDLEWARE
// ============================================================================

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// newResponseWriter creates a wrapped response writer.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code before writing it.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware returns HTTP middleware that logs all requests.
//
// Log format: "2024-01-15 14:30:45 | POST /v1/markings/render | 200 | 0.002s"
func LoggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			logger.Printf("%s | %s %s | %d | %.3fs",
				start.Format("2006-01-02 15:04:05"),
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				duration.Seconds(),
			)
		})
	}
}

// ============================================================================
// SECURITY HEADERS MIDDLEWARE
// ============================================================================

// SecurityHeadersMiddleware returns HTTP middleware that adds security
// headers.
//
// Responses carry classification markings, so caching is disabled on
// every route.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// Content Security Policy
			w.Header().Set("Content-Security-Policy", "default-src 'self'")

			// Prevent caching of marking responses
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// RECOVERY MIDDLEWARE
// ============================================================================

// RecoveryMiddleware returns HTTP middleware that recovers from panics.
//
// Catches panics in downstream handlers, logs the stack trace, and
// returns 500 Internal Server Error instead of dropping the connection.
func RecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					stack := debug.Stack()
					log.Printf("PANIC_RECOVERED | method=%s path=%s error=%v\n%s",
						r.Method,
						r.URL.Path,
						err,
						string(stack),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// MIDDLEWARE CHAIN HELPER
// ============================================================================

// Chain composes multiple middleware functions into a single middleware.
// Middlewares are applied in the order provided.
//
// Example:
//
//	chain := Chain(
//	    RecoveryMiddleware(),
//	    LoggingMiddleware(logger),
//	    RateLimitMiddleware(limiter),
//	)
//	http.Handle("/api", chain(handler))
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		// Apply middlewares in reverse order so they execute in order
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// ============================================================================
// IP EXTRACTION HELPER
// ============================================================================

// trustedProxies lists the sources allowed to set X-Forwarded-For and
// X-Real-IP. The service binds loopback, so only a local reverse proxy
// can legitimately forward; headers from anywhere else are spoofable and
// ignored.
var trustedProxies = []string{
	"127.0.0.0/8", // IPv4 loopback
	"::1/128",     // IPv6 loopback
}

var (
	parsedTrustedProxies []*net.IPNet
	trustedProxiesOnce   sync.Once
)

// parseTrustedProxies parses the trusted proxy CIDR ranges once.
func parseTrustedProxies() {
	trustedProxiesOnce.Do(func() {
		parsedTrustedProxies = make([]*net.IPNet, 0, len(trustedProxies))
		for _, cidr := range trustedProxies {
			_, ipNet, err := net.ParseCIDR(cidr)
			if err == nil {
				parsedTrustedProxies = append(parsedTrustedProxies, ipNet)
			}
		}
	})
}

// isTrustedProxy checks if the given IP address may set forwarded headers.
func isTrustedProxy(ipStr string) bool {
	parseTrustedProxies()

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	for _, cidr := range parsedTrustedProxies {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// getRemoteIP extracts the IP address from r.RemoteAddr.
// RemoteAddr is in the format "IP:port" or "[IPv6]:port".
func getRemoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return remoteAddr
	}
	return host
}

// GetClientIP extracts the client IP address from an HTTP request.
//
// Forwarded headers are honored only when the direct connection comes
// from a trusted proxy; otherwise a client could spoof its way past the
// rate limiter.
func GetClientIP(r *http.Request) string {
	connIP := getRemoteIP(r.RemoteAddr)

	if !isTrustedProxy(connIP) {
		return connIP
	}

	// Check X-Forwarded-For header (may contain multiple IPs); the
	// first entry is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			clientIP := strings.TrimSpace(parts[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
	}

	// Check X-Real-IP header
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	return connIP
}
