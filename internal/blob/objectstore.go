package blob

import (
	"context"
	"log/slog"
	"time"

	"github.com/truetone/truetone/shared/objectstore"
)

// ObjectStoreTransfer implements Transfer over the S3-compatible
// object store client.
type ObjectStoreTransfer struct {
	client *objectstore.Client
	logger *slog.Logger
}

// NewObjectStoreTransfer creates a Transfer backed by the object store.
func NewObjectStoreTransfer(client *objectstore.Client, logger *slog.Logger) *ObjectStoreTransfer {
	return &ObjectStoreTransfer{
		client: client,
		logger: logger,
	}
}

func (t *ObjectStoreTransfer) PresignUpload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url, err := t.client.PresignedPut(ctx, key, ttl)
	if err != nil {
		return "", &TransferError{Op: "presign-upload", Key: key, Err: err}
	}
	return url, nil
}

func (t *ObjectStoreTransfer) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url, err := t.client.PresignedGet(ctx, key, ttl)
	if err != nil {
		return "", &TransferError{Op: "presign-download", Key: key, Err: err}
	}
	return url, nil
}

func (t *ObjectStoreTransfer) Download(ctx context.Context, key, destination string) error {
	start := time.Now()

	if err := t.client.DownloadFile(ctx, key, destination); err != nil {
		return &TransferError{Op: "download", Key: key, Err: err}
	}

	t.logger.Debug("Blob downloaded",
		slog.String("key", key),
		slog.Duration("elapsed", time.Since(start)),
	)

	return nil
}

func (t *ObjectStoreTransfer) Upload(ctx context.Context, source, key string) error {
	start := time.Now()

	if err := t.client.UploadFile(ctx, source, key, "image/jpeg"); err != nil {
		return &TransferError{Op: "upload", Key: key, Err: err}
	}

	t.logger.Debug("Blob uploaded",
		slog.String("key", key),
		slog.Duration("elapsed", time.Since(start)),
	)

	return nil
}
