package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

// Image host folders.
const (
	ProductsFolder = "products"
	ProfilesFolder = "profile_images"
)

// images wraps an ImageHost with validation, metrics and best-effort deletes.
type images struct {
	host storage.ImageHost
}

// upload rejects non-image payloads with ErrInvalidImage before any remote call.
func (i images) upload(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	_, body, err := storage.SniffImage(r)
	if errors.Is(err, storage.ErrNotImage) {
		return "", ErrInvalidImage
	}
	if err != nil {
		return "", err
	}

	url, err := i.host.Upload(ctx, folder, filename, body)
	metrics.ImageOps.WithLabelValues("upload", metrics.Result(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

// destroy deletes url and logs a failure instead of returning it.
func (i images) destroy(ctx context.Context, url string) {
	if url == "" {
		return
	}
	err := i.host.Destroy(ctx, url)
	metrics.ImageOps.WithLabelValues("destroy", metrics.Result(err)).Inc()
	if err != nil {
		logger.WithCtx(ctx).Warn("image delete failed", "url", url, "error", err)
	}
}
