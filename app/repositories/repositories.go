// Package repositories persists users, products and cart items. Each
// interface has MongoDB, GORM and in-memory implementations.
package repositories

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/bazaar/app/models"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("repositories: record not found")

	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("repositories: duplicate key")
)

// UserRepository stores accounts keyed by email.
type UserRepository interface {
	// Create assigns ID and timestamps when empty.
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// UpdateImage sets the image reference and returns the updated user.
	UpdateImage(ctx context.Context, email, image string) (models.User, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// ProductRepository stores catalogue listings.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	// FindByID returns ErrNotFound for malformed ids too.
	FindByID(ctx context.Context, id string) (models.Product, error)
	// List returns products whose title contains search (case-insensitive,
	// literal match), newest first. An empty search matches everything.
	List(ctx context.Context, search string) ([]models.Product, error)
	FindBySellerPhone(ctx context.Context, phone string) ([]models.Product, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// CartRepository stores cart lines. Lines are never merged.
type CartRepository interface {
	Add(ctx context.Context, item *models.CartItem) error
	// ListByUser returns lines in insertion order.
	ListByUser(ctx context.Context, userID string) ([]models.CartItem, error)
	// RemoveOne deletes the oldest line matching (userID, productID).
	RemoveOne(ctx context.Context, userID, productID string) error
}

// Set bundles one backend's repositories.
type Set struct {
	Users    UserRepository
	Products ProductRepository
	Carts    CartRepository
}
