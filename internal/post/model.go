// Package post implements image posts: the creation workflow with its
// compensating cleanup, persistence, and owner-gated edits and deletes.
package post

import (
	"errors"
	"time"
)

// Post is an image post owned by a user.
type Post struct {
	ID            string         `json:"id"`
	Caption       string         `json:"caption"`
	ImageURL      string         `json:"imageUrl"`
	RemoteImageID string         `json:"remoteImageId"`
	User          Owner          `json:"user"`
	ImageMetadata *ImageMetadata `json:"imageMetadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Owner is the expanded reference to the user who created a post.
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ImageMetadata is captured from the image store at upload time.
type ImageMetadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// OwnedBy reports whether userID is the post's owner. IDs are compared as
// opaque strings.
func (p *Post) OwnedBy(userID string) bool {
	return userID != "" && p.User.ID == userID
}

var (
	// ErrNotFound is returned when a post does not exist.
	ErrNotFound = errors.New("post not found")

	// ErrForbidden is returned when the requester does not own the post.
	ErrForbidden = errors.New("not authorized")

	// ErrCaptionRequired is returned when a create or edit has no caption.
	ErrCaptionRequired = errors.New("please provide a caption")

	// ErrImageRequired is returned when a create has no image attached.
	ErrImageRequired = errors.New("please provide an image")
)

// PersistenceError wraps a storage-layer failure while saving a post.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "persist post: " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }
