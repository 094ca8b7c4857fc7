package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

// CatalogService manages product listings.
type CatalogService struct {
	products repositories.ProductRepository
	images   images
	events   event.Publisher
	now      func() time.Time
}

func NewCatalogService(products repositories.ProductRepository, host storage.ImageHost, events event.Publisher) *CatalogService {
	if events == nil {
		events = event.Nop{}
	}
	return &CatalogService{products: products, images: images{host: host}, events: events, now: time.Now}
}

// WithClock overrides the clock used for createdAt.
func (s *CatalogService) WithClock(now func() time.Time) *CatalogService {
	s.now = now
	return s
}

// NewProductInput is a listing submission. Price arrives as form text.
type NewProductInput struct {
	Title       string
	Price       string
	Description string
	Condition   string
	Location    string
	SellerPhone string
	Filename    string
	Image       io.Reader // nil when no file was sent
}

// Create uploads the image to the products folder and stores the listing.
func (s *CatalogService) Create(ctx context.Context, in NewProductInput) (models.Product, error) {
	if blank(in.Title, in.Price, in.Description, in.Condition, in.Location, in.SellerPhone) || in.Image == nil {
		return models.Product{}, ErrMissingFields
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(in.Price), 64)
	if err != nil || price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return models.Product{}, ErrInvalidPrice
	}

	url, err := s.images.upload(ctx, ProductsFolder, in.Filename, in.Image)
	if err != nil {
		return models.Product{}, err
	}

	p := models.Product{
		Title:       in.Title,
		Price:       price,
		Description: in.Description,
		Condition:   in.Condition,
		Location:    in.Location,
		SellerPhone: in.SellerPhone,
		Image:       url,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.products.Create(ctx, &p); err != nil {
		// The listing never existed, so the upload is garbage.
		s.images.destroy(ctx, url)
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}

	logger.WithCtx(ctx).Info("product created", "product_id", p.ID, "title", p.Title)
	s.events.Publish(ctx, event.ProductCreated, p.ID, p)
	return p, nil
}

// List returns products matching search, newest first.
func (s *CatalogService) List(ctx context.Context, search string) ([]models.Product, error) {
	out, err := s.products.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Get returns one product. Malformed ids are reported as not found.
func (s *CatalogService) Get(ctx context.Context, id string) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Delete removes the product after a best-effort delete of its image.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if !models.ValidID(id) {
		return ErrInvalidProductID
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	s.images.destroy(ctx, p.Image)

	if err := s.products.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}

	logger.WithCtx(ctx).Info("product deleted", "product_id", id)
	s.events.Publish(ctx, event.ProductDeleted, id, map[string]string{"id": id})
	return nil
}
