package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists posts.
type Store interface {
	// Create inserts p and fills in ID, timestamps and the owner's name.
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	// List returns all posts, newest first.
	List(ctx context.Context) ([]Post, error)
	// ListByUser returns the posts owned by userID, newest first.
	ListByUser(ctx context.Context, userID string) ([]Post, error)
	UpdateCaption(ctx context.Context, id, caption string) (*Post, error)
	Delete(ctx context.Context, id string) error
}

const selectPosts = `
	SELECT p.id, p.caption, p.image_url, p.remote_image_id, p.user_id, u.name,
	       p.image_width, p.image_height, p.image_format, p.image_bytes,
	       p.created_at, p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.user_id`

// Repository handles all post database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a post and returns it enriched with generated fields.
func (r *Repository) Create(ctx context.Context, p *Post) error {
	var width, height *int
	var format *string
	var size *int64
	if m := p.ImageMetadata; m != nil {
		width, height, format, size = &m.Width, &m.Height, &m.Format, &m.Size
	}

	err := r.db.QueryRow(ctx,
		`WITH inserted AS (
			INSERT INTO posts (caption, image_url, remote_image_id, user_id,
			                   image_width, image_height, image_format, image_bytes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, user_id, created_at, updated_at
		)
		SELECT i.id, u.name, i.created_at, i.updated_at
		FROM inserted i JOIN users u ON u.id = i.user_id`,
		p.Caption, p.ImageURL, p.RemoteImageID, p.User.ID, width, height, format, size,
	).Scan(&p.ID, &p.User.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID fetches a post by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Post, error) {
	p, err := scanPost(r.db.QueryRow(ctx, selectPosts+` WHERE p.id = $1`, id))
	if isNoPost(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return p, nil
}

// List returns all posts, newest first.
func (r *Repository) List(ctx context.Context) ([]Post, error) {
	rows, err := r.db.Query(ctx, selectPosts+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return collectPosts(rows)
}

// ListByUser returns the posts of one owner, newest first. An ID that is
// not a valid UUID simply matches nothing.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Post, error) {
	rows, err := r.db.Query(ctx, selectPosts+` WHERE p.user_id = $1 ORDER BY p.created_at DESC`, userID)
	if err != nil {
		if isInvalidText(err) {
			return []Post{}, nil
		}
		return nil, fmt.Errorf("list posts by user: %w", err)
	}
	posts, err := collectPosts(rows)
	if isInvalidText(err) {
		return []Post{}, nil
	}
	return posts, err
}

// UpdateCaption replaces the caption and bumps updated_at.
func (r *Repository) UpdateCaption(ctx context.Context, id, caption string) (*Post, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE posts SET caption = $2, updated_at = NOW() WHERE id = $1`,
		id, caption,
	)
	if isInvalidText(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update caption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the post row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if isInvalidText(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (*Post, error) {
	p := &Post{}
	var width, height *int
	var format *string
	var size *int64
	err := row.Scan(&p.ID, &p.Caption, &p.ImageURL, &p.RemoteImageID, &p.User.ID, &p.User.Name,
		&width, &height, &format, &size, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if width != nil && height != nil && format != nil && size != nil {
		p.ImageMetadata = &ImageMetadata{Width: *width, Height: *height, Format: *format, Size: *size}
	}
	return p, nil
}

func collectPosts(rows pgx.Rows) ([]Post, error) {
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func isNoPost(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || isInvalidText(err)
}

// isInvalidText checks for PostgreSQL invalid_text_representation (22P02),
// raised when a malformed UUID is used as a key.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
