package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/event"
)

func TestDeleteByEmailCascades(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewMemory()
	host := &mockHost{}
	events := &recorder{}

	seedUser(t, repos, "asha@example.com", "9000", "pw")
	_, err := repos.Users.UpdateImage(ctx, "asha@example.com", "https://img.test/me.png")
	require.NoError(t, err)
	bike := seedProduct(t, repos, "bike", "9000")
	lamp := seedProduct(t, repos, "lamp", "9000")
	other := seedProduct(t, repos, "chair", "7000")
	require.NoError(t, repos.Carts.Add(ctx, &models.CartItem{UserID: "asha@example.com", ProductID: other.ID}))

	host.On("Destroy", mock.Anything, "https://img.test/me.png").Return(nil).Once()
	host.On("Destroy", mock.Anything, bike.Image).Return(errors.New("host down")).Once()
	host.On("Destroy", mock.Anything, lamp.Image).Return(nil).Once()

	svc := services.NewAccountService(repos.Users, repos.Products, host, events)
	require.NoError(t, svc.DeleteByEmail(ctx, "asha@example.com"))
	host.AssertExpectations(t)

	_, err = repos.Users.FindByEmail(ctx, "asha@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repos.Products.FindByID(ctx, bike.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repos.Products.FindByID(ctx, lamp.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repos.Products.FindByID(ctx, other.ID)
	assert.NoError(t, err)

	lines, err := repos.Carts.ListByUser(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Equal(t, []string{event.UserDeleted}, events.Names())

	assert.ErrorIs(t, svc.DeleteByEmail(ctx, "asha@example.com"), services.ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteByEmail(ctx, ""), services.ErrMissingFields)
}

func TestUploadProfileImage(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewMemory()
	host := &mockHost{}
	seedUser(t, repos, "asha@example.com", "9000", "pw")
	_, err := repos.Users.UpdateImage(ctx, "asha@example.com", "https://img.test/old.png")
	require.NoError(t, err)

	host.On("Upload", mock.Anything, services.ProfilesFolder, "me.png", mock.Anything).Return("https://img.test/new.png", nil).Once()
	host.On("Destroy", mock.Anything, "https://img.test/old.png").Return(nil).Once()

	svc := services.NewAccountService(repos.Users, repos.Products, host, nil)
	u, err := svc.UploadProfileImage(ctx, "asha@example.com", "me.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/new.png", u.Image)
	host.AssertExpectations(t)

	_, err = svc.UploadProfileImage(ctx, "ghost@example.com", "me.png", bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	_, err = svc.UploadProfileImage(ctx, "asha@example.com", "me.png", nil)
	assert.ErrorIs(t, err, services.ErrMissingFields)
}

func TestPublicHidesDependencyErrors(t *testing.T) {
	status, msg := services.Public(errors.New("mongo: connection refused"), "Internal Server Error")
	assert.Equal(t, 500, status)
	assert.Equal(t, "Internal Server Error", msg)

	status, msg = services.Public(services.ErrAlreadyRegistered, "x")
	assert.Equal(t, 409, status)
	assert.Equal(t, "Email is already registered", msg)
}
