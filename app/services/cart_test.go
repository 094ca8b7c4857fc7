package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/event"
)

func seedProduct(t *testing.T, repos repositories.Set, title, phone string) models.Product {
	t.Helper()
	p := &models.Product{Title: title, Price: 10, SellerPhone: phone, Image: "https://img.test/" + title + ".png"}
	require.NoError(t, repos.Products.Create(context.Background(), p))
	return *p
}

func qty(n int) *int { return &n }

func TestAddSamePairTwiceKeepsTwoLines(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewMemory()
	events := &recorder{}
	svc := services.NewCartService(repos.Carts, repos.Products, events)
	bike := seedProduct(t, repos, "bike", "9000")

	first, err := svc.Add(ctx, services.AddToCartInput{UserID: "a@b.c", ProductID: bike.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)

	_, err = svc.Add(ctx, services.AddToCartInput{UserID: "a@b.c", ProductID: bike.ID, Quantity: qty(2)})
	require.NoError(t, err)

	lines, err := svc.List(ctx, "a@b.c")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, 2, lines[1].Quantity)
	assert.Equal(t, bike.ID, lines[1].Product.ID)
	assert.Equal(t, []string{event.CartItemAdded, event.CartItemAdded}, events.Names())
}

func TestAddValidation(t *testing.T) {
	svc := services.NewCartService(repositories.NewMemory().Carts, repositories.NewMemory().Products, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, services.AddToCartInput{UserID: "a@b.c"})
	assert.ErrorIs(t, err, services.ErrMissingFields)

	_, err = svc.Add(ctx, services.AddToCartInput{UserID: "a@b.c", ProductID: models.NewID(), Quantity: qty(0)})
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)

	_, err = svc.List(ctx, "")
	assert.ErrorIs(t, err, services.ErrMissingFields)
}

func TestListDropsOrphanedLines(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewMemory()
	svc := services.NewCartService(repos.Carts, repos.Products, nil)
	lamp := seedProduct(t, repos, "lamp", "9000")

	for _, pid := range []string{"not-an-id", models.NewID(), lamp.ID} {
		_, err := svc.Add(ctx, services.AddToCartInput{UserID: "a@b.c", ProductID: pid})
		require.NoError(t, err)
	}

	lines, err := svc.List(ctx, "a@b.c")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, lamp.ID, lines[0].Product.ID)

	empty, err := svc.List(ctx, "nobody@b.c")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewMemory()
	svc := services.NewCartService(repos.Carts, repos.Products, nil)
	lamp := seedProduct(t, repos, "lamp", "9000")

	_, err := svc.Add(ctx, services.AddToCartInput{UserID: "a@b.c", ProductID: lamp.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "a@b.c", lamp.ID))
	assert.ErrorIs(t, svc.Remove(ctx, "a@b.c", lamp.ID), services.ErrCartItemNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, "", lamp.ID), services.ErrMissingFields)
}
