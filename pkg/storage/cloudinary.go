package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryOptions holds account credentials.
type CloudinaryOptions struct {
	CloudName string
	APIKey    string
	APISecret string
}

// CloudinaryHost uploads to Cloudinary and returns secure URLs.
type CloudinaryHost struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryHost builds a Cloudinary client from opts.
func NewCloudinaryHost(opts CloudinaryOptions) (*CloudinaryHost, error) {
	if opts.CloudName == "" || opts.APIKey == "" || opts.APISecret == "" {
		return nil, errors.New("storage/cloudinary: CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
	}
	cld, err := cloudinary.NewFromParams(opts.CloudName, opts.APIKey, opts.APISecret)
	if err != nil {
		return nil, fmt.Errorf("storage/cloudinary: %w", err)
	}
	return &CloudinaryHost{cld: cld}, nil
}

func (h *CloudinaryHost) Upload(ctx context.Context, folder, _ string, r io.Reader) (string, error) {
	res, err := h.cld.Upload.Upload(ctx, r, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", fmt.Errorf("storage/cloudinary: upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("storage/cloudinary: upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("storage/cloudinary: upload returned no url")
	}
	return res.SecureURL, nil
}

func (h *CloudinaryHost) Destroy(ctx context.Context, imageURL string) error {
	id, ok := CloudinaryPublicID(imageURL)
	if !ok {
		return fmt.Errorf("storage/cloudinary: %q is not a cloudinary delivery url", imageURL)
	}
	res, err := h.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	if err != nil {
		return fmt.Errorf("storage/cloudinary: destroy %s: %w", id, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("storage/cloudinary: destroy %s: %s", id, res.Error.Message)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// CloudinaryPublicID extracts the public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/products/abc.jpg,
// which yields "products/abc".
func CloudinaryPublicID(imageURL string) (string, bool) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", false
	}
	_, rest, found := strings.Cut(u.Path, "/upload/")
	if !found || rest == "" {
		return "", false
	}

	segs := strings.Split(rest, "/")
	if len(segs) > 1 && versionSegment.MatchString(segs[0]) {
		segs = segs[1:]
	}
	id := strings.Join(segs, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", false
	}
	return id, true
}
