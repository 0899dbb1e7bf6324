package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const staleAfter = 10 * time.Minute

// RateLimiter limits requests per client IP using a token bucket per client.
// Intended for the auth endpoints, where brute forcing is the concern.
type RateLimiter struct {
	perMinute int
	// TrustProxy trusts the X-Forwarded-For header set by a fronting
	// reverse proxy. Leave false when clients connect directly: the header
	// is client-controlled and rotating it would mint fresh buckets.
	TrustProxy bool

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per client IP.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &RateLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*clientLimiter),
	}
}

// Middleware returns the echo middleware enforcing the limit.
func (r *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !r.allow(r.clientIP(c.Request())) {
				c.Response().Header().Set("Retry-After", "60")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

func (r *RateLimiter) allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cl, ok := r.clients[ip]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(r.perMinute)/60.0), r.perMinute),
		}
		r.clients[ip] = cl
	}
	cl.lastSeen = now

	// Opportunistic cleanup of idle clients.
	for key, other := range r.clients {
		if now.Sub(other.lastSeen) > staleAfter {
			delete(r.clients, key)
		}
	}

	return cl.limiter.Allow()
}

// clientIP picks the address the bucket is keyed on. X-Forwarded-For is only
// honoured behind a trusted proxy, and then only its first hop (the original
// client); everything else falls back to the socket peer.
func (r *RateLimiter) clientIP(req *http.Request) string {
	if r.TrustProxy {
		if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
