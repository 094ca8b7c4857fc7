package controllers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shashiranjanraj/bazaar/app/controllers"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/pending"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/app/routes"
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/mail"
	"github.com/shashiranjanraj/bazaar/pkg/router"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

type fixture struct {
	handler http.Handler
	repos   repositories.Set
}

func setup(t *testing.T) fixture {
	t.Helper()
	repos := repositories.NewMemory()

	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)
	host := storage.NewDiskHost(disk)
	events := event.NewBus()

	c := routes.Controllers{
		Auth: controllers.NewAuthController(services.NewAuthService(repos.Users)),
		Registration: controllers.NewRegistrationController(services.NewRegistrationService(
			repos.Users, pending.NewMemory(), mail.LogMailer{}, events,
			services.RegistrationOptions{HashCost: bcrypt.MinCost},
		)),
		Products: controllers.NewProductController(services.NewCatalogService(repos.Products, host, events)),
		Cart:     controllers.NewCartController(services.NewCartService(repos.Carts, repos.Products, events)),
		Users:    controllers.NewUserController(services.NewAccountService(repos.Users, repos.Products, host, events)),
	}

	r := router.New()
	routes.RegisterAPI(r, c, routes.Options{})
	return fixture{handler: r.Handler(), repos: repos}
}

func (f fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestLoginErrors(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPost, "/login", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errors"`)

	rec = f.do(http.MethodPost, "/login", `{"email":"x@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"status":401,"message":"Invalid credentials"}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/login", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginReturnsProfile(t *testing.T) {
	f := setup(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.repos.Users.Create(context.Background(), &models.User{
		FullName: "Ravi", Email: "ravi@example.com", Mobile: "1", Password: string(hash),
	}))

	rec := f.do(http.MethodPost, "/login", `{"email":"ravi@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"Login successful"`)
	assert.Contains(t, rec.Body.String(), `"fullname":"Ravi"`)
	assert.NotContains(t, rec.Body.String(), string(hash))
}

func TestVerifyWithoutRequest(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPost, "/api/verify-otp", `{"email":"nobody@example.com","otp":"123456"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":400,"message":"No OTP request found for this email"}`, rec.Body.String())
}

func TestProductNotFoundAndInvalidID(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/api/products/"+models.NewID(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":404,"message":"Product not found"}`, rec.Body.String())

	rec = f.do(http.MethodDelete, "/api/products/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":400,"message":"Invalid product ID"}`, rec.Body.String())
}

func TestProductListEmptyIsArray(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStoreProductRejectsNonImage(t *testing.T) {
	f := setup(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"title": "Lamp", "price": "15", "description": "Brass", "condition": "used",
		"location": "Delhi", "sellerPhone": "555",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", "notes.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("just some text"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":400,"message":"Only image uploads are allowed"}`, rec.Body.String())
}

func TestStoreProductMissingFields(t *testing.T) {
	f := setup(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Lamp"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":400,"message":"All fields are required"}`, rec.Body.String())
}

func TestCartErrors(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPost, "/api/cart", `{"userId":"a@example.com","productId":"p1","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":400,"message":"Quantity must be at least 1"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodDelete, "/api/cart?email=a@example.com&productId=p1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":404,"message":"Cart item not found"}`, rec.Body.String())
}

func TestCartListEmptyIsArray(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/api/cart?email=a@example.com", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDeleteUnknownUser(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodDelete, "/api/users/deleteByEmail", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":404,"message":"User not found"}`, rec.Body.String())
}

func TestUploadProfileImageWithoutFile(t *testing.T) {
	f := setup(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("email", "a@example.com"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploadProfileImage", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
