package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

// cascadeImageLimit bounds concurrent image deletes during account removal.
const cascadeImageLimit = 4

// AccountService handles profile images and account deletion.
type AccountService struct {
	users    repositories.UserRepository
	products repositories.ProductRepository
	images   images
	events   event.Publisher
}

func NewAccountService(users repositories.UserRepository, products repositories.ProductRepository, host storage.ImageHost, events event.Publisher) *AccountService {
	if events == nil {
		events = event.Nop{}
	}
	return &AccountService{users: users, products: products, images: images{host: host}, events: events}
}

// DeleteByEmail removes the user, the products they sell and every
// related remote image. Image failures are logged and skipped. Cart lines
// are left in place and filtered on read.
func (s *AccountService) DeleteByEmail(ctx context.Context, email string) error {
	if blank(email) {
		return ErrMissingFields
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	s.images.destroy(ctx, user.Image)

	var products []models.Product
	if user.Mobile != "" {
		products, err = s.products.FindBySellerPhone(ctx, user.Mobile)
		if err != nil {
			return fmt.Errorf("find user products: %w", err)
		}
	}

	ids := make([]string, len(products))
	var g errgroup.Group
	g.SetLimit(cascadeImageLimit)
	for i, p := range products {
		ids[i] = p.ID
		g.Go(func() error {
			s.images.destroy(ctx, p.Image)
			return nil
		})
	}
	_ = g.Wait()

	removed, err := s.products.DeleteByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete user products: %w", err)
	}

	if err := s.users.DeleteByEmail(ctx, email); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	logger.WithCtx(ctx).Info("user deleted", "email", email, "products_removed", removed)
	s.events.Publish(ctx, event.UserDeleted, user.ID, map[string]any{
		"email":           email,
		"productsRemoved": removed,
	})
	return nil
}

// UploadProfileImage stores a new profile image and replaces the user's
// image reference. The previous image is deleted best-effort.
func (s *AccountService) UploadProfileImage(ctx context.Context, email, filename string, r io.Reader) (models.User, error) {
	if blank(email) || r == nil {
		return models.User{}, ErrMissingFields
	}
	current, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	url, err := s.images.upload(ctx, ProfilesFolder, filename, r)
	if err != nil {
		return models.User{}, err
	}

	updated, err := s.users.UpdateImage(ctx, email, url)
	if err != nil {
		s.images.destroy(ctx, url)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("update user image: %w", err)
	}

	if current.Image != "" && current.Image != url {
		s.images.destroy(ctx, current.Image)
	}
	return updated, nil
}
