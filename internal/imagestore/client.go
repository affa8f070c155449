// Package imagestore uploads post images to the remote object store and
// removes them again. It owns the transformation policy applied to every
// image before it leaves the host.
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/taskgram/service/internal/metrics"
	"github.com/taskgram/service/internal/storage"
)

// Namespace is the key prefix every post image is stored under.
const Namespace = "task-social-app"

const (
	defaultMaxWidth = 1280
	defaultTimeout  = 30 * time.Second
)

// Image describes an object stored by Upload.
type Image struct {
	URL    string
	ID     string
	Width  int
	Height int
	Format string
	Bytes  int64
}

// UploadError wraps any failure of Upload. No remote object is assumed to
// exist when it is returned.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "upload image: " + e.Err.Error() }

func (e *UploadError) Unwrap() error { return e.Err }

// Client is the remote image store client. It is safe for concurrent use.
type Client struct {
	store    storage.Storage
	maxWidth int
	timeout  time.Duration
	newKey   func(ext string) string
}

// Option configures a Client.
type Option func(*Client)

// WithMaxWidth sets the width images are scaled down to.
func WithMaxWidth(px int) Option {
	return func(c *Client) { c.maxWidth = px }
}

// WithTimeout bounds every remote call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New returns a Client writing to store.
func New(store storage.Storage, opts ...Option) *Client {
	c := &Client{
		store:    store,
		maxWidth: defaultMaxWidth,
		timeout:  defaultTimeout,
		newKey: func(ext string) string {
			return fmt.Sprintf("%s/%s.%s", Namespace, uuid.NewString(), ext)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload reads the file at localPath, applies the transformation policy and
// stores the result. Every failure is returned as *UploadError.
func (c *Client) Upload(ctx context.Context, localPath string) (*Image, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	raw, err := os.ReadFile(localPath)
	if err != nil {
		return nil, &UploadError{Err: fmt.Errorf("read staged file: %w", err)}
	}

	img, err := transform(raw, c.maxWidth)
	if err != nil {
		return nil, &UploadError{Err: err}
	}

	key := c.newKey(img.ext)
	err = c.store.Put(ctx, storage.Object{
		Key:         key,
		Body:        bytes.NewReader(img.data),
		Size:        int64(len(img.data)),
		ContentType: img.contentType,
		Metadata: map[string]string{
			"width":  strconv.Itoa(img.width),
			"height": strconv.Itoa(img.height),
			"format": img.format,
		},
	})
	if err != nil {
		return nil, &UploadError{Err: err}
	}

	return &Image{
		URL:    c.store.PublicURL(key),
		ID:     key,
		Width:  img.width,
		Height: img.height,
		Format: img.format,
		Bytes:  int64(len(img.data)),
	}, nil
}

// Delete removes the object with the given id. It is cleanup and never
// fails the caller: errors are logged and counted.
func (c *Client) Delete(ctx context.Context, id string) {
	if id == "" {
		return
	}
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.store.Remove(ctx, id); err != nil {
		metrics.CleanupWarnings.WithLabelValues("remote_image").Inc()
		log.Printf("cleanup warning: imagestore: delete %q: %v", id, err)
	}
}

// callContext detaches from the caller's cancellation so an upload that has
// begun runs to completion or timeout.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
}
