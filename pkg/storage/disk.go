// Package storage stores uploaded images and hands back public URLs.
//
// Three drivers are available:
//   - "cloudinary": Cloudinary media host (default)
//   - "s3":         S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//   - "local":      local filesystem served under /uploads
//
// Quick start:
//
//	host, err := storage.NewImageHost(ctx, storage.Config{Driver: "local", LocalRoot: "uploads"})
//	url, err := host.Upload(ctx, "products", "bike.jpg", file)
//	err = host.Destroy(ctx, url)
package storage

import (
	"context"
	"io"
)

// Disk is the object store behind the s3 and local drivers.
type Disk interface {
	// PutStream writes from r to path, creating parent directories as needed.
	PutStream(ctx context.Context, path string, r io.Reader, contentType string) error

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool

	// URL returns the public URL for path.
	URL(path string) string

	// Path reverses URL. ok is false when url does not belong to this disk.
	Path(url string) (path string, ok bool)

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error
}
