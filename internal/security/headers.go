package security

import (
	"net/http"
	"strconv"
	"strings"
)

const defaultHSTSMaxAge = 180 * 24 * 60 * 60

// apiHeaders are set on every response. The API only serves JSON, so nothing
// may be framed, embedded cross-origin or cached by intermediaries.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
}

// Headers sets response headers suited to a JSON-only API.
type Headers struct {
	Enable     bool
	EnableHSTS bool
	// HSTSMaxAge is in seconds; zero means 180 days.
	HSTSMaxAge int
}

// Middleware attaches the API header set. Strict-Transport-Security is only
// sent when the request arrived over TLS, directly or via a proxy that sets
// X-Forwarded-Proto.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for _, kv := range apiHeaders {
			headers.Set(kv[0], kv[1])
		}
		if h.EnableHSTS && overTLS(r) {
			headers.Set("Strict-Transport-Security", h.hsts())
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) hsts() string {
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	return "max-age=" + strconv.Itoa(maxAge)
}

func overTLS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}
