package ctx_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
)

func TestJSONAndMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.Message(http.StatusCreated, "saved")
		assert.Equal(t, http.StatusCreated, c.WrittenStatus())
	})(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"saved"}`, rec.Body.String())
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.Error(http.StatusNotFound, "Product not found")
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.JSONEq(t, `{"status":404,"message":"Product not found"}`, rec.Body.String())
}

func TestBindJSONValid(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c","otp":"123456"}`))

	var ok bool
	appctx.Wrap(func(c *appctx.Context) {
		var in struct {
			Email string `json:"email" validate:"required"`
			OTP   string `json:"otp"   validate:"required"`
		}
		ok = c.BindJSON(&in)
		assert.Equal(t, "123456", in.OTP)
	})(rec, req)

	assert.True(t, ok)
}

func TestBindJSONMissingField(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))

	appctx.Wrap(func(c *appctx.Context) {
		var in struct {
			Email string `json:"email" validate:"required"`
			OTP   string `json:"otp"   validate:"required"`
		}
		assert.False(t, c.BindJSON(&in))
	})(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"otp"`)
}

func TestBindJSONTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"`+strings.Repeat("x", 64)+`"}`))

	w := appctx.NewWrapper(appctx.Options{MaxBodyBytes: 16})
	w.Wrap(func(c *appctx.Context) {
		var in struct {
			Email string `json:"email"`
		}
		assert.False(t, c.BindJSON(&in))
	})(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}

func TestParamAndQuery(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/products/{id}", appctx.Wrap(func(c *appctx.Context) {
		c.JSON(http.StatusOK, map[string]string{"id": c.Param("id"), "search": c.Query("search")})
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/abc?search=bike", nil))

	assert.JSONEq(t, `{"id":"abc","search":"bike"}`, rec.Body.String())
}

func TestMultipartFormFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("email", "a@b.c"))
	fw, err := mw.CreateFormFile("profileImage", "me.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	appctx.Wrap(func(c *appctx.Context) {
		require.True(t, c.ParseMultipart())
		assert.Equal(t, "a@b.c", c.FormValue("email"))

		f, h, err := c.FormFile("profileImage")
		require.NoError(t, err)
		require.NotNil(t, f)
		defer f.Close()
		assert.Equal(t, "me.png", h.Filename)

		missing, _, err := c.FormFile("image")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})(rec, req)
}
