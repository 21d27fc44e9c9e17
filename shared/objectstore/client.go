package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds S3-compatible object store configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Client represents an S3-compatible object store client
type Client struct {
	mc     *minio.Client
	config *Config
	logger *slog.Logger
}

// NewClient creates a new object store client and verifies the bucket
// is reachable.
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	mc, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := mc.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", config.Bucket)
	}

	logger.Info("Connected to object store",
		slog.String("endpoint", config.Endpoint),
		slog.String("bucket", config.Bucket),
	)

	return &Client{
		mc:     mc,
		config: config,
		logger: logger,
	}, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.config.Bucket
}

// PresignedPut returns a time-limited URL for uploading an object
// directly, without routing the bytes through this service.
func (c *Client) PresignedPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.mc.PresignedPutObject(ctx, c.config.Bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}
	return u.String(), nil
}

// PresignedGet returns a time-limited URL for downloading an object.
func (c *Client) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.mc.PresignedGetObject(ctx, c.config.Bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %s: %w", key, err)
	}
	return u.String(), nil
}

// DownloadFile fetches an object into a local file. minio stages the
// bytes in a .part file and renames on success, so a failed download
// never leaves a truncated destination behind.
func (c *Client) DownloadFile(ctx context.Context, key, path string) error {
	if err := c.mc.FGetObject(ctx, c.config.Bucket, key, path, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	return nil
}

// UploadFile stores a local file under the given object key.
func (c *Client) UploadFile(ctx context.Context, path, key, contentType string) error {
	_, err := c.mc.FPutObject(ctx, c.config.Bucket, key, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
