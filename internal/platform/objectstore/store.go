package objectstore

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Store holds the generated annex PDFs. Keys are grouped by wizard session so
// a whole session can be dropped with RemovePrefix.
type Store interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// RemovePrefix deletes every object under prefix and reports how many
	// were removed. A prefix with no objects is not an error.
	RemovePrefix(ctx context.Context, bucket, prefix string) (int, error)
}

type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}
