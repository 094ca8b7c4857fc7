// Package kernel assembles the HTTP handler: global middleware, the health
// and metrics endpoints, optional static uploads and the API routes.
package kernel

import (
	"net/http"
	"net/url"

	"github.com/shashiranjanraj/bazaar/pkg/metrics"
	"github.com/shashiranjanraj/bazaar/pkg/middleware"
	"github.com/shashiranjanraj/bazaar/pkg/reqid"
	"github.com/shashiranjanraj/bazaar/pkg/response"
	"github.com/shashiranjanraj/bazaar/pkg/router"
)

// Options configures the kernel.
type Options struct {
	CORSOrigins []string

	// UploadsDir, when set, is served at the path of UploadsURL.
	UploadsDir string
	UploadsURL string

	// Routes registers the application routes.
	Routes func(*router.Router)
}

// HTTPKernel owns the router and its middleware stack.
type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel builds the router. Middleware order, outermost first:
// metrics, recovery, request id, access log, CORS.
func NewHTTPKernel(opts Options) *HTTPKernel {
	r := router.New()

	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(opts.CORSOrigins)))

	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.HandleFunc("/metrics", metrics.Handler())

	if opts.UploadsDir != "" {
		r.Static(uploadsPrefix(opts.UploadsURL), http.Dir(opts.UploadsDir))
	}

	if opts.Routes != nil {
		opts.Routes(r)
	}

	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Router() *router.Router { return k.router }

// uploadsPrefix extracts the path of a public base URL such as
// "http://localhost:4000/uploads".
func uploadsPrefix(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/uploads"
	}
	return u.Path
}
