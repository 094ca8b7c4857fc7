// Package reqid provides request ID generation and context propagation.
//
// Every request gets an id (reused from X-Request-ID when the caller sends
// one), echoed back in the response header and attached to the request
// logger by middleware.Logger.
package reqid

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Header is the HTTP header name used to propagate the request ID.
const Header = "X-Request-ID"

// maxLen bounds ids accepted from clients.
const maxLen = 128

// New returns a random v4 UUID without dashes.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithValue stores id in ctx.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx extracts the request ID from ctx, or "".
func FromCtx(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Middleware injects a request ID into every request context and response.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(Header))
			if id == "" || len(id) > maxLen {
				id = New()
			}

			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), id)))
		})
	}
}
