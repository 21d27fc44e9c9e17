package blob

import (
	"context"
	"fmt"
	"time"
)

// Transfer moves image bytes between the object store and local disk,
// and issues time-limited capability URLs so producers and consumers
// can move bytes without routing them through this service.
type Transfer interface {
	PresignUpload(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
	Download(ctx context.Context, key, destination string) error
	Upload(ctx context.Context, source, key string) error
}

// TransferError wraps any I/O or permission failure from the object
// store. Op is one of "download", "upload", "presign-upload",
// "presign-download".
type TransferError struct {
	Op  string
	Key string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("blob %s failed for %s: %v", e.Op, e.Key, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
