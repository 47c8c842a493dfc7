package middleware

import (
	"errors"
	"net"
	"net/http"

	"github.com/itchan-dev/postsweb/internal/middleware/ratelimiter"
	"github.com/itchan-dev/postsweb/internal/session"
)

// RateLimit rejects requests once the bucket of their identity is empty.
func RateLimit(rl *ratelimiter.KeyedRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if !rl.Allow(identity) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionID identifies the request by its session. Must run after the
// session middleware.
func GetSessionID(r *http.Request) (string, error) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return "", errors.New("no session in request context")
	}
	return "session_" + s.ID, nil
}

// GetIP extracts the client IP from RemoteAddr. chi's RealIP middleware has
// already rewritten it when running behind a proxy.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", errors.New("invalid IP address: " + ip)
	}
	return "ip_" + ip, nil
}
