package post

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/taskgram/service/internal/events"
	"github.com/taskgram/service/internal/metrics"
)

const sideEffectTimeout = 10 * time.Second

// Notifier tells an owner their post was published.
type Notifier interface {
	PostPublished(ctx context.Context, p *Post) error
}

// Service contains business logic for posts.
type Service struct {
	repo     Store
	images   ImageStore
	events   events.Publisher
	notifier Notifier
	wf       *workflow
}

// NewService creates a new post Service. publisher and notifier may be nil.
func NewService(repo Store, images ImageStore, publisher events.Publisher, notifier Notifier) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:     repo,
		images:   images,
		events:   publisher,
		notifier: notifier,
		wf:       newWorkflow(repo, images),
	}
}

// Create runs the post-creation workflow. Errors unwrap to one of
// ErrCaptionRequired, ErrImageRequired, *ValidationError,
// *imagestore.UploadError or *PersistenceError.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Post, error) {
	p, err := s.wf.run(ctx, in)
	if err != nil {
		log.Printf("post: create for user %s failed: %v", in.UserID, err)
		return nil, err
	}
	metrics.PostsCreated.Inc()
	log.Printf("post: created %s for user %s (image %s)", p.ID, p.User.ID, p.RemoteImageID)

	s.publish(ctx, events.PostCreated, p)
	s.notify(ctx, p)
	return p, nil
}

// List returns all posts, newest first.
func (s *Service) List(ctx context.Context) ([]Post, error) {
	return s.repo.List(ctx)
}

// ListByUser returns a user's posts, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Post, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one post.
func (s *Service) Get(ctx context.Context, id string) (*Post, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateCaption replaces the caption of a post owned by userID.
func (s *Service) UpdateCaption(ctx context.Context, id, userID, caption string) (*Post, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return nil, ErrCaptionRequired
	}
	if _, err := s.owned(ctx, id, userID); err != nil {
		return nil, err
	}
	p, err := s.repo.UpdateCaption(ctx, id, caption)
	if err != nil {
		return nil, fmt.Errorf("update caption: %w", err)
	}
	return p, nil
}

// Delete removes a post owned by userID and its remote image. A failed
// remote delete is logged and does not stop the record from being removed.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	p, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}

	s.images.Delete(ctx, p.RemoteImageID)

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	log.Printf("post: deleted %s (image %s)", p.ID, p.RemoteImageID)

	s.publish(ctx, events.PostDeleted, p)
	return nil
}

// IsNotFound returns true when the error indicates a post was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// owned loads a post and checks that userID owns it.
func (s *Service) owned(ctx context.Context, id, userID string) (*Post, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *Service) publish(ctx context.Context, eventType string, p *Post) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	err := s.events.Publish(ctx, events.Event{
		Type:          eventType,
		PostID:        p.ID,
		UserID:        p.User.ID,
		RemoteImageID: p.RemoteImageID,
		At:            time.Now().UTC(),
	})
	if err != nil {
		log.Printf("post: publish %s for %s: %v", eventType, p.ID, err)
	}
}

func (s *Service) notify(ctx context.Context, p *Post) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		defer cancel()
		if err := s.notifier.PostPublished(ctx, p); err != nil {
			log.Printf("post: notify owner of %s: %v", p.ID, err)
		}
	}()
}
