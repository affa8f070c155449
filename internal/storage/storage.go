// Package storage defines the object storage used to host post images.
// The MinIO implementation works with any S3-compatible provider (MinIO, AWS S3, R2).
package storage

import (
	"context"
	"io"
)

// Object is a single blob to be written to the store.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	// Metadata is stored as user metadata alongside the object.
	Metadata map[string]string
}

// Storage is the interface for writing and removing objects.
type Storage interface {
	// Put streams obj.Body to the store under obj.Key.
	Put(ctx context.Context, obj Object) error
	// Remove deletes the object at key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}
