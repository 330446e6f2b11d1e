package storage

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service archives generated exports in remote object storage.
type Service interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}
