package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the S3 driver. Endpoint is empty for real AWS.
type S3Options struct {
	Bucket   string
	Region   string
	Key      string
	Secret   string
	Endpoint string
	URL      string
}

// S3Disk is the S3-compatible object storage driver.
// Works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare R2.
type S3Disk struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Disk builds an S3 client from opts.
func NewS3Disk(ctx context.Context, opts S3Options) (*S3Disk, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage/s3: S3_BUCKET is not configured")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(opts.Region),
	}

	// Static credentials (required for MinIO / R2 / Spaces)
	if opts.Key != "" && opts.Secret != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.Key, opts.Secret, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	baseURL := strings.TrimRight(opts.URL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return &S3Disk{
		client:  s3.NewFromConfig(cfg, clientOpts...),
		bucket:  opts.Bucket,
		baseURL: baseURL,
	}, nil
}

func (d *S3Disk) PutStream(ctx context.Context, path string, r io.Reader, contentType string) error {
	// The SDK needs a seekable body to sign the payload.
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("storage/s3: read: %w", err)
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := d.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("storage/s3: put %s: %w", path, err)
	}
	return nil
}

func (d *S3Disk) Exists(ctx context.Context, path string) bool {
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	return err == nil
}

func (d *S3Disk) URL(path string) string {
	return d.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (d *S3Disk) Path(url string) (string, bool) {
	prefix := d.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (d *S3Disk) Delete(ctx context.Context, path string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("storage/s3: delete %s: %w", path, err)
	}
	return nil
}
