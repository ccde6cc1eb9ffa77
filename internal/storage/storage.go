// Package storage wraps the blob store holding training builds and per-user
// and per-organization containers.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a container or blob does not exist.
var ErrNotFound = errors.New("blob not found")

type BlobInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// BlobStore is the subset of blob storage the API needs.
type BlobStore interface {
	ContainerExists(ctx context.Context, container string) (bool, error)
	// CreateContainer is a no-op when the container already exists.
	CreateContainer(ctx context.Context, container string) error
	ListBlobs(ctx context.Context, container, prefix string) ([]BlobInfo, error)
	BlobExists(ctx context.Context, container, name string) (bool, error)
	// CopyBlob copies srcContainer/srcName to dstContainer/dstName.
	CopyBlob(ctx context.Context, srcContainer, srcName, dstContainer, dstName string) error
	// ReadURL returns a temporary read-only URL valid for ttl.
	ReadURL(ctx context.Context, container, name string, ttl time.Duration) (string, error)
	DeleteBlob(ctx context.Context, container, name string) error
}
