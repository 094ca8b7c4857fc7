package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// cartJoinLimit bounds concurrent product lookups per cart read.
const cartJoinLimit = 8

// CartService manages cart lines.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	events   event.Publisher
}

func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository, events event.Publisher) *CartService {
	if events == nil {
		events = event.Nop{}
	}
	return &CartService{carts: carts, products: products, events: events}
}

// AddToCartInput is an add request. A nil Quantity means 1.
type AddToCartInput struct {
	UserID    string
	ProductID string
	Quantity  *int
}

// Add always appends a new line, even for a (user, product) pair already
// in the cart.
func (s *CartService) Add(ctx context.Context, in AddToCartInput) (models.CartItem, error) {
	if blank(in.UserID, in.ProductID) {
		return models.CartItem{}, ErrMissingFields
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if qty < 1 {
		return models.CartItem{}, ErrInvalidQuantity
	}

	item := models.CartItem{UserID: in.UserID, ProductID: in.ProductID, Quantity: qty}
	if err := s.carts.Add(ctx, &item); err != nil {
		return models.CartItem{}, fmt.Errorf("add cart item: %w", err)
	}

	s.events.Publish(ctx, event.CartItemAdded, item.UserID, item)
	return item, nil
}

// List joins the user's lines with their products. Lines whose product is
// malformed or gone are dropped with a warning.
func (s *CartService) List(ctx context.Context, email string) ([]models.CartLine, error) {
	if blank(email) {
		return nil, ErrMissingFields
	}
	items, err := s.carts.ListByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	joined := make([]*models.CartLine, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cartJoinLimit)
	for i, it := range items {
		if !models.ValidID(it.ProductID) {
			logger.WithCtx(ctx).Warn("cart line has invalid product id", "product_id", it.ProductID, "email", email)
			continue
		}
		g.Go(func() error {
			p, err := s.products.FindByID(gctx, it.ProductID)
			if errors.Is(err, repositories.ErrNotFound) {
				logger.WithCtx(ctx).Warn("cart line product not found", "product_id", it.ProductID, "email", email)
				return nil
			}
			if err != nil {
				return fmt.Errorf("load product %s: %w", it.ProductID, err)
			}
			joined[i] = &models.CartLine{Product: p, Quantity: it.Quantity}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.CartLine, 0, len(joined))
	for _, l := range joined {
		if l != nil {
			out = append(out, *l)
		}
	}
	return out, nil
}

// Remove deletes one line for (email, productID).
func (s *CartService) Remove(ctx context.Context, email, productID string) error {
	if blank(email, productID) {
		return ErrMissingFields
	}
	err := s.carts.RemoveOne(ctx, email, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrCartItemNotFound
	}
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}
