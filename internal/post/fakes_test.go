package post

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/taskgram/service/internal/events"
	"github.com/taskgram/service/internal/imagestore"
	"github.com/taskgram/service/internal/upload"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu        sync.Mutex
	posts     map[string]*Post
	names     map[string]string
	seq       int
	createErr error
	deleteErr error
	creates   int
	createCtx error
	mutations int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts: map[string]*Post{},
		names: map[string]string{"user-1": "Ada", "user-2": "Grace"},
	}
}

func (f *fakeStore) Create(ctx context.Context, p *Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.createCtx = ctx.Err()
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	p.ID = fmt.Sprintf("post-%d", f.seq)
	p.User.Name = f.names[p.User.ID]
	p.CreatedAt = time.Date(2026, 1, 1, 0, 0, f.seq, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) List(ctx context.Context) ([]Post, error) {
	return f.filter(func(*Post) bool { return true }), nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]Post, error) {
	return f.filter(func(p *Post) bool { return p.User.ID == userID }), nil
}

func (f *fakeStore) filter(keep func(*Post) bool) []Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Post{}
	for _, p := range f.posts {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeStore) UpdateCaption(_ context.Context, id, caption string) (*Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	f.mutations++
	p.Caption = caption
	p.UpdatedAt = p.UpdatedAt.Add(time.Minute)
	cp := *p
	return &cp, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.posts[id]; !ok {
		return ErrNotFound
	}
	f.mutations++
	delete(f.posts, id)
	return nil
}

// fakeImages is an ImageStore that records calls.
type fakeImages struct {
	mu        sync.Mutex
	uploadErr error
	uploads   []string
	deletes   []string
	seq       int
}

func (f *fakeImages) Upload(_ context.Context, localPath string) (*imagestore.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, localPath)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.seq++
	id := fmt.Sprintf("%s/img-%d.jpg", imagestore.Namespace, f.seq)
	return &imagestore.Image{
		URL:    "https://cdn.test/" + id,
		ID:     id,
		Width:  1280,
		Height: 853,
		Format: "jpeg",
		Bytes:  204800,
	}, nil
}

func (f *fakeImages) Delete(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// stageFile writes size bytes to a temp file and describes it as an upload.
func stageFile(t *testing.T, contentType string, size int) *upload.StagedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staged-upload")
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("write staged file: %v", err)
	}
	return &upload.StagedFile{Path: path, Filename: "photo.jpg", ContentType: contentType, Size: int64(size)}
}

func assertRemoved(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected staged file %s to be removed (stat err: %v)", path, err)
	}
}
