package services

import (
	"errors"
	"net/http"
)

// Kind classifies a service failure for the transport layer.
type Kind int

const (
	KindDependency Kind = iota // store, image host or mail failure
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
)

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is an anticipated failure whose message is safe to show clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

var (
	ErrMissingFields      = newError(KindValidation, "All fields are required")
	ErrNoPendingRequest   = newError(KindValidation, "No OTP request found for this email")
	ErrOTPExpired         = newError(KindValidation, "OTP has expired")
	ErrInvalidOTP         = newError(KindValidation, "Invalid OTP")
	ErrAlreadyRegistered  = newError(KindConflict, "Email is already registered")
	ErrInvalidCredentials = newError(KindUnauthorized, "Invalid credentials")
	ErrProductNotFound    = newError(KindNotFound, "Product not found")
	ErrInvalidProductID   = newError(KindValidation, "Invalid product ID")
	ErrCartItemNotFound   = newError(KindNotFound, "Cart item not found")
	ErrUserNotFound       = newError(KindNotFound, "User not found")
	ErrInvalidImage       = newError(KindValidation, "Only image uploads are allowed")
	ErrInvalidPrice       = newError(KindValidation, "Price must be a positive number")
	ErrInvalidQuantity    = newError(KindValidation, "Quantity must be at least 1")
	ErrPasswordTooLong    = newError(KindValidation, "Password must be at most 72 bytes")
)

// KindOf returns the Kind of err. Unclassified errors are dependency failures.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindDependency
}

// Public returns the status and client-safe message for err. fallback is
// used for dependency failures so internals never leak.
func Public(err error, fallback string) (int, string) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind.Status(), se.Message
	}
	return http.StatusInternalServerError, fallback
}
