package middleware

import (
	"net"
	"net/http"

	"github.com/gorilla/csrf"

	"glp/internal/application/orchestrators"
)

// ClientIP stores the remote host (without port) in the request context.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(orchestrators.WithClientIP(r.Context(), ip)))
	})
}

// securityHeaders are set on every response. Pages carry inline styles and
// small inline scripts, so both are allowed from 'self' only.
var securityHeaders = [][2]string{
	{"Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "same-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
}

// SecurityHeaders sets the browser hardening headers before the handler runs.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// CSRFFieldName is the form field carrying the masked token.
const CSRFFieldName = "csrf_token"

// CSRF returns middleware that rejects unsafe requests without a valid token.
// failure renders the rejection page; the wrapped handler never runs for those requests.
// When secure is false requests are treated as plain HTTP, which skips the
// Referer check gorilla/csrf applies to TLS traffic.
func CSRF(authKey []byte, secure bool, failure http.Handler) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName(CSRFFieldName),
		csrf.CookieName("glp_csrf"),
		csrf.ErrorHandler(failure),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

// Chain wraps h from the inside out: the first wrapper listed sits closest to
// h and the last one sees the request first.
func Chain(h http.Handler, wrappers ...func(http.Handler) http.Handler) http.Handler {
	for _, wrap := range wrappers {
		h = wrap(h)
	}
	return h
}
