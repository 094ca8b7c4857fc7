package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
)

// AuthService checks credentials.
type AuthService struct {
	users repositories.UserRepository
	dummy []byte
}

func NewAuthService(users repositories.UserRepository) *AuthService {
	// Compared against when the email is unknown so both failures cost a bcrypt round.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("bazaar-dummy-password"), bcrypt.DefaultCost)
	return &AuthService{users: users, dummy: dummy}
}

// Login returns the sanitized profile for valid credentials. Unknown
// email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.Profile, error) {
	if blank(email) || password == "" {
		return models.Profile{}, ErrMissingFields
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return models.Profile{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.Profile{}, ErrInvalidCredentials
	}
	return user.Profile(), nil
}
