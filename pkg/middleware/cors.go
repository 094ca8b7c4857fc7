package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	AllowedOrigins   []string // exact origins, or "*"
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// DefaultCORSOptions returns the options used by the API for origins.
// Credentials are allowed only when every origin is listed explicitly; a
// "*" entry (or an empty list) opens the API to any origin without them.
func DefaultCORSOptions(origins []string) CORSOptions {
	cleaned := make([]string, 0, len(origins))
	wildcard := false
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, strings.TrimRight(o, "/"))
			wildcard = wildcard || o == "*"
		}
	}
	if len(cleaned) == 0 {
		cleaned, wildcard = []string{"*"}, true
	}
	return CORSOptions{
		AllowedOrigins:   cleaned,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

// CORS returns a middleware that adds Cross-Origin Resource Sharing headers.
// A wildcard match is answered with "*" unless credentials are enabled, in
// which case the caller's origin is echoed.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	methods := strings.Join(opts.AllowedMethods, ", ")
	headers := strings.Join(opts.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := ""
			for _, o := range opts.AllowedOrigins {
				if o == origin && origin != "" {
					allowed = origin
					break
				}
				if o == "*" && origin != "" {
					allowed = "*"
					if opts.AllowCredentials {
						allowed = origin
					}
					break
				}
			}

			if allowed != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if opts.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if opts.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(opts.MaxAge))
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
