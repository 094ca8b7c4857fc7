package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/pkg/router"
)

func TestGroupMountsWithMiddleware(t *testing.T) {
	r := router.New()

	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Group", "api")
			next.ServeHTTP(w, req)
		})
	}

	api := r.Group("/api", tag)
	api.Delete("/products/{id}", "products.destroy", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("login", "auth.login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/products/abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "api", rec.Header().Get("X-Group"))

	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Group"))
}

func TestNamedRoutesAndURL(t *testing.T) {
	r := router.New()
	noop := func(http.ResponseWriter, *http.Request) {}

	r.Group("/api").Get("/products/{id}", "products.show", noop)
	r.Post("/login", "", noop)

	url, err := r.URL("products.show", map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "/api/products/42", url)

	_, err = r.URL("products.show", nil)
	assert.Error(t, err)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/api/products/{id}", routes[0].Path)
	assert.Equal(t, "/login", routes[1].Path)
}
