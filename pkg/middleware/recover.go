package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/response"
)

// Recovery converts a handler panic into a 500 envelope. When the handler
// already started the response only the log line is written. Aborted
// handlers (http.ErrAbortHandler) are re-raised for net/http to handle.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := wrapWriter(w)
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(v)
			}
			logger.WithCtx(r.Context()).Error("handler panicked",
				"panic", v,
				"route", r.Method+" "+r.URL.Path,
				"stack", string(debug.Stack()),
			)
			if !sw.written() {
				response.Error(sw, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(sw, r)
	})
}
