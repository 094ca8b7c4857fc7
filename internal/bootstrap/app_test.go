package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/internal/bootstrap"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppEnv:             "testing",
		AppKey:             "test-key",
		DBDriver:           "memory",
		PendingStore:       "memory",
		OTPExpiryMinutes:   10,
		OTPLength:          6,
		OTPSweepInterval:   time.Minute,
		OTPRateLimit:       100,
		MailDriver:         "log",
		ImageDriver:        "local",
		StorageLocalRoot:   t.TempDir(),
		StorageURL:         "http://localhost:4000/uploads",
		CORSAllowedOrigins: []string{"*"},
		MaxBodyBytes:       1 << 20,
		MaxUploadBytes:     1 << 20,
	}
}

func newApp(t *testing.T, cfg *config.Config) http.Handler {
	app, err := bootstrap.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	app.Registration.WithCodeGenerator(func(int) (string, error) { return "424242", nil })
	return app.Kernel.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func multipartReq(t *testing.T, target string, fields map[string]string, fileField string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(fileField, "pic.png")
	require.NoError(t, err)
	_, err = fw.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func TestMarketplaceFlow(t *testing.T) {
	h := newApp(t, testConfig(t))

	register := `{"fullname":"Asha Rao","email":"asha@example.com","mobile":"9990001111","location":"Pune","password":"s3cret"}`
	rec := do(t, h, http.MethodPost, "/api/send-otp", register)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"OTP sent"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/verify-otp", `{"email":"asha@example.com","otp":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/verify-otp", `{"email":"asha@example.com","otp":"424242"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/login", `{"email":"asha@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(t, h, http.MethodPost, "/api/login", `{"email":"asha@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// product
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, multipartReq(t, "/api/products", map[string]string{
		"title":       "Bicycle",
		"price":       "120",
		"description": "Barely used",
		"condition":   "good",
		"location":    "Pune",
		"sellerPhone": "9990001111",
	}, "image"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Product struct {
			ID    string `json:"_id"`
			Image string `json:"image"`
		} `json:"product"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.Product.ID)

	imageURL, err := url.Parse(created.Product.Image)
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, imageURL.Path, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/products?search=bicy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.Product.ID)

	rec = do(t, h, http.MethodGet, "/api/products/"+created.Product.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// cart
	rec = do(t, h, http.MethodPost, "/api/cart", `{"userId":"asha@example.com","productId":"`+created.Product.ID+`","quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/cart?email=asha@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []struct {
		Quantity int `json:"quantity"`
	}
	decode(t, rec, &lines)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	rec = do(t, h, http.MethodDelete, "/api/cart?email=asha@example.com&productId="+created.Product.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// profile image
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, multipartReq(t, "/api/uploadProfileImage", map[string]string{"email": "asha@example.com"}, "profileImage"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "/uploads/profile_images/")

	// cascade
	rec = do(t, h, http.MethodDelete, "/api/users/deleteByEmail", `{"email":"asha@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/products/"+created.Product.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/login", `{"email":"asha@example.com","password":"s3cret"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendOTPRateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.OTPRateLimit = 2
	h := newApp(t, cfg)

	body := `{"fullname":"A","email":"a@example.com","mobile":"1","location":"X","password":"p"}`
	for range 2 {
		rec := do(t, h, http.MethodPost, "/api/send-otp", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := do(t, h, http.MethodPost, "/api/send-otp", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRoutesAreNamed(t *testing.T) {
	app, err := bootstrap.New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	path, ok := app.Kernel.Router().Path("products.show")
	require.True(t, ok)
	assert.Equal(t, "/api/products/{id}", path)

	u, err := app.Kernel.Router().URL("products.show", map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/products/abc", u)
}
