package api

import (
	"net"
	"net/http"

	"github.com/listenupapp/bookfinder/internal/http/response"
	"github.com/listenupapp/bookfinder/internal/ratelimit"
)

// RateLimiter is the per-client limiter used for inbound requests.
type RateLimiter = ratelimit.KeyedRateLimiter

// RateLimitMiddleware creates a middleware that rate limits requests by IP.
// Returns 429 Too Many Requests when limit is exceeded.
func RateLimitMiddleware(limiter *RateLimiter, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP returns the client address without its port. chi's RealIP
// middleware has already folded X-Forwarded-For and X-Real-IP into RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
