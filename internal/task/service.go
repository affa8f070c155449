package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrForbidden is returned when the requester does not own the task.
	ErrForbidden = errors.New("not authorized")

	// ErrTitleRequired is returned when a task is created without a title.
	ErrTitleRequired = errors.New("please provide a title")

	// ErrInvalidStatus is returned for a status outside the allowed set.
	ErrInvalidStatus = errors.New("status must be one of: pending, in-progress, completed")
)

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// Store persists tasks.
type Store interface {
	Create(ctx context.Context, userID, title, description string) (*Task, error)
	GetByID(ctx context.Context, id string) (*Task, error)
	ListByUser(ctx context.Context, userID string) ([]Task, error)
	UpdateStatus(ctx context.Context, id, status string) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// Service contains business logic for tasks.
type Service struct {
	repo Store
}

// NewService creates a new task Service.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// List returns the caller's tasks.
func (s *Service) List(ctx context.Context, userID string) ([]Task, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create adds a pending task for userID.
func (s *Service) Create(ctx context.Context, userID, title, description string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	t, err := s.repo.Create(ctx, userID, title, strings.TrimSpace(description))
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// UpdateStatus changes the status of a task owned by userID.
func (s *Service) UpdateStatus(ctx context.Context, id, userID, status string) (*Task, error) {
	if !validStatuses[status] {
		return nil, ErrInvalidStatus
	}
	if err := s.checkOwner(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Delete removes a task owned by userID.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if err := s.checkOwner(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkOwner(ctx context.Context, id, userID string) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if userID == "" || t.UserID != userID {
		return ErrForbidden
	}
	return nil
}
