// Package pending holds registrations awaiting OTP verification.
package pending

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no entry exists for the email.
var ErrNotFound = errors.New("pending: no entry")

// Registration is the unconfirmed sign-up payload.
type Registration struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Location string `json:"location"`
	Password string `json:"password"`
}

// Entry is one pending registration.
type Entry struct {
	Code         string       `json:"otp"`
	ExpiresAt    time.Time    `json:"expires"`
	Registration Registration `json:"regData"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Store keeps at most one Entry per email. Put overwrites.
type Store interface {
	Put(ctx context.Context, email string, e Entry) error
	Get(ctx context.Context, email string) (Entry, error)
	Delete(ctx context.Context, email string) error
	// SweepExpired removes entries expired at now and returns how many.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
