package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ImageHost stores images and returns their public URL.
type ImageHost interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (url string, err error)
	Destroy(ctx context.Context, url string) error
}

// ErrNotImage is returned by SniffImage for non-image content.
var ErrNotImage = errors.New("storage: content is not an image")

// ErrForeignURL is returned by DiskHost.Destroy for URLs it did not issue.
var ErrForeignURL = errors.New("storage: url does not belong to this host")

// Config selects and configures an ImageHost driver.
type Config struct {
	Driver     string // cloudinary | s3 | local
	Cloudinary CloudinaryOptions
	S3         S3Options
	LocalRoot  string
	LocalURL   string
}

// NewImageHost builds the configured driver.
func NewImageHost(ctx context.Context, cfg Config) (ImageHost, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "cloudinary":
		return NewCloudinaryHost(cfg.Cloudinary)
	case "s3":
		d, err := NewS3Disk(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewDiskHost(d), nil
	case "local":
		d, err := NewLocalDisk(cfg.LocalRoot, cfg.LocalURL)
		if err != nil {
			return nil, err
		}
		return NewDiskHost(d), nil
	default:
		return nil, fmt.Errorf("storage: unknown image driver %q", cfg.Driver)
	}
}

// DiskHost stores images on a Disk under folder/<uuid><ext>.
type DiskHost struct {
	disk Disk
}

// NewDiskHost wraps d as an ImageHost.
func NewDiskHost(d Disk) *DiskHost { return &DiskHost{disk: d} }

// Disk returns the underlying Disk.
func (h *DiskHost) Disk() Disk { return h.disk }

func (h *DiskHost) Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	contentType, body, err := SniffImage(r)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = extFor(contentType)
	}
	key := path.Join(folder, strings.ReplaceAll(uuid.NewString(), "-", "")+ext)
	if err := h.disk.PutStream(ctx, key, body, contentType); err != nil {
		return "", err
	}
	return h.disk.URL(key), nil
}

func (h *DiskHost) Destroy(ctx context.Context, url string) error {
	key, ok := h.disk.Path(url)
	if !ok {
		return fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	return h.disk.Delete(ctx, key)
}

// SniffImage detects the content type from the first 512 bytes and fails
// with ErrNotImage unless it is image/*. The returned reader replays the
// sniffed prefix.
func SniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("storage: read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", nil, ErrNotImage
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, fmt.Errorf("%w: %s", ErrNotImage, contentType)
	}
	return contentType, io.MultiReader(bytes.NewReader(head), r), nil
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return ""
}
