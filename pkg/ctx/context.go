// Package ctx provides the request context handed to controllers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context:
//
//	func (c *ProductController) Show(cx *ctx.Context) {
//	    product, err := c.catalog.Get(cx.Context(), cx.Param("id"))
//	    ...
//	    cx.JSON(http.StatusOK, product)
//	}
//
//	api.Get("/products/{id}", "products.show", wrapper.Wrap(c.Show))
package ctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/bazaar/pkg/bind"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Options bounds request bodies.
type Options struct {
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

// Wrapper adapts HandlerFuncs to net/http with fixed Options.
type Wrapper struct {
	opts Options
}

// NewWrapper returns a Wrapper; zero limits fall back to 4 MB.
func NewWrapper(opts Options) *Wrapper {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = bind.DefaultMaxBodyBytes
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = bind.DefaultMaxBodyBytes
	}
	return &Wrapper{opts: opts}
}

// Wrap converts h to an http.HandlerFunc.
func (wr *Wrapper) Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r, wr.opts)
		defer release(c)
		h(c)
	}
}

// Wrap converts h using default Options.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return NewWrapper(Options{}).Wrap(h)
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	opts   Options
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request, opts Options) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.opts = opts
	c.status = 0
	return c
}

func release(c *Context) {
	if c.R != nil && c.R.MultipartForm != nil {
		_ = c.R.MultipartForm.RemoveAll()
	}
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// Param returns a URL path parameter ("/products/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value, or "".
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Log returns the request logger.
func (c *Context) Log() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// BindJSON decodes and validates the JSON body into dest. On failure it
// writes a 400 and returns false.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest, c.opts.MaxBodyBytes)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if bind.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ParseMultipart parses a multipart body capped at MaxUploadBytes. On
// failure it writes a 400 and returns false.
func (c *Context) ParseMultipart() bool {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, c.opts.MaxUploadBytes)
	if err := c.R.ParseMultipartForm(c.opts.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Error(http.StatusBadRequest, fmt.Sprintf("upload too large (max %d bytes)", maxErr.Limit))
			return false
		}
		c.Error(http.StatusBadRequest, "invalid multipart form")
		return false
	}
	return true
}

// FormValue returns a multipart or urlencoded field.
func (c *Context) FormValue(key string) string {
	return c.R.FormValue(key)
}

// FormFile returns the uploaded file under key, or nil when absent.
// The caller must close the file.
func (c *Context) FormFile(key string) (multipart.File, *multipart.FileHeader, error) {
	f, h, err := c.R.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	return f, h, err
}

// JSON writes v with the given status code.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// Message writes {"message": msg}.
func (c *Context) Message(code int, msg string) {
	c.status = code
	response.Message(c.W, code, msg)
}

// Error writes the unified error envelope.
func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

// ValidationError writes a 400 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.status = http.StatusBadRequest
	response.ValidationError(c.W, errs)
}

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
