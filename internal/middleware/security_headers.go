package middleware

import (
	"net/http"
	"strings"
)

// DefaultCSP allows only same-origin scripts, styles and XHR.
const DefaultCSP = "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; connect-src 'self'; frame-ancestors 'none'; form-action 'self'; base-uri 'none'"

// PageHeaders holds the headers written on every response.
type PageHeaders struct {
	HTTPS bool   // adds Strict-Transport-Security
	CSP   string // no Content-Security-Policy when empty
}

var fixedHeaders = [...][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "same-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()"},
}

func (p PageHeaders) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range fixedHeaders {
			h.Set(kv[0], kv[1])
		}
		if p.CSP != "" {
			h.Set("Content-Security-Policy", p.CSP)
		}
		if p.HTTPS {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// ClientHints asks the browser for the named hints on later requests and
// lists them in Vary, for pages whose markup depends on them.
func ClientHints(names ...string) func(http.Handler) http.Handler {
	list := strings.Join(names, ", ")
	return func(next http.Handler) http.Handler {
		if list == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Accept-CH", list)
			w.Header().Add("Vary", list)
			next.ServeHTTP(w, r)
		})
	}
}
