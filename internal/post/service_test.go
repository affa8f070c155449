package post

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/taskgram/service/internal/events"
	"github.com/taskgram/service/internal/mailer"
	"github.com/taskgram/service/internal/user"
)

func seedPost(t *testing.T, svc *Service, owner, caption string) *Post {
	t.Helper()
	p, err := svc.Create(context.Background(), CreateInput{
		UserID: owner, Caption: caption, File: stageFile(t, "image/jpeg", 1024),
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}

func TestService_DeleteByOwner(t *testing.T) {
	store, images, pub := newFakeStore(), &fakeImages{}, &recordingPublisher{}
	svc := NewService(store, images, pub, nil)
	p := seedPost(t, svc, "user-1", "sunset")

	if err := svc.Delete(context.Background(), p.ID, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(images.deletes) != 1 || images.deletes[0] != p.RemoteImageID {
		t.Errorf("expected remote delete of %s, got %v", p.RemoteImageID, images.deletes)
	}
	if _, err := store.GetByID(context.Background(), p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected post to be gone, got %v", err)
	}
	if got := pub.types(); !reflect.DeepEqual(got, []string{events.PostCreated, events.PostDeleted}) {
		t.Errorf("unexpected events %v", got)
	}
}

func TestService_DeleteNotOwner(t *testing.T) {
	store, images := newFakeStore(), &fakeImages{}
	svc := NewService(store, images, nil, nil)
	p := seedPost(t, svc, "user-1", "sunset")
	before := store.mutations

	err := svc.Delete(context.Background(), p.ID, "user-2")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(images.deletes) != 0 || store.mutations != before {
		t.Errorf("expected no mutation, deletes=%v mutations=%d", images.deletes, store.mutations-before)
	}
}

func TestService_DeleteMissing(t *testing.T) {
	images := &fakeImages{}
	svc := NewService(newFakeStore(), images, nil, nil)

	if err := svc.Delete(context.Background(), "nope", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(images.deletes) != 0 {
		t.Errorf("expected no remote delete, got %v", images.deletes)
	}
}

func TestService_DeleteRecordFailure(t *testing.T) {
	store, images := newFakeStore(), &fakeImages{}
	svc := NewService(store, images, nil, nil)
	p := seedPost(t, svc, "user-1", "sunset")
	store.deleteErr = errors.New("connection lost")

	err := svc.Delete(context.Background(), p.ID, "user-1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected storage error, got %v", err)
	}
	// Remote cleanup already happened; the orphaned row is the accepted tradeoff.
	if len(images.deletes) != 1 {
		t.Errorf("expected remote delete before row delete, got %v", images.deletes)
	}
}

func TestService_UpdateCaption(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeImages{}, nil, nil)
	p := seedPost(t, svc, "user-1", "sunset")

	updated, err := svc.UpdateCaption(context.Background(), p.ID, "user-1", " golden hour ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Caption != "golden hour" || updated.ImageURL != p.ImageURL {
		t.Errorf("unexpected post after update %+v", updated)
	}
	if !updated.UpdatedAt.After(p.UpdatedAt) {
		t.Error("expected updatedAt to advance")
	}

	if _, err := svc.UpdateCaption(context.Background(), p.ID, "user-2", "mine now"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UpdateCaption(context.Background(), p.ID, "user-1", "  "); !errors.Is(err, ErrCaptionRequired) {
		t.Errorf("expected ErrCaptionRequired, got %v", err)
	}
	if _, err := svc.UpdateCaption(context.Background(), "nope", "user-1", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListNewestFirst(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeImages{}, nil, nil)
	first := seedPost(t, svc, "user-1", "first")
	second := seedPost(t, svc, "user-2", "second")
	third := seedPost(t, svc, "user-1", "third")

	all, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("expected newest first, got %v", ids(all))
	}

	mine, err := svc.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(mine), []string{third.ID, first.ID}) {
		t.Errorf("unexpected user listing %v", ids(mine))
	}
	for _, p := range mine {
		if p.ID == second.ID {
			t.Error("listing leaked another user's post")
		}
	}
}

func TestService_PublishFailureDoesNotFailCreate(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewService(newFakeStore(), &fakeImages{}, pub, nil)

	if _, err := svc.Create(context.Background(), CreateInput{
		UserID: "user-1", Caption: "sunset", File: stageFile(t, "image/jpeg", 1024),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.types()) != 1 {
		t.Errorf("expected publish attempt, got %v", pub.types())
	}
}

type chanMailer struct {
	sent chan mailer.Message
}

func (c *chanMailer) Send(_ context.Context, msg mailer.Message) error {
	c.sent <- msg
	return nil
}

type staticUsers map[string]*user.User

func (s staticUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func TestService_NotifiesOwnerByEmail(t *testing.T) {
	mail := &chanMailer{sent: make(chan mailer.Message, 1)}
	users := staticUsers{"user-1": {ID: "user-1", Name: "Ada", Email: "ada@example.com"}}
	svc := NewService(newFakeStore(), &fakeImages{}, nil, NewEmailNotifier(mail, users))

	p := seedPost(t, svc, "user-1", "sunset <3")

	select {
	case msg := <-mail.sent:
		if msg.To != "ada@example.com" {
			t.Errorf("unexpected recipient %q", msg.To)
		}
		if !strings.Contains(msg.Text, p.ImageURL) {
			t.Errorf("expected image url in text body, got %q", msg.Text)
		}
		if !strings.Contains(msg.HTML, "sunset &lt;3") {
			t.Errorf("expected escaped caption in html body, got %q", msg.HTML)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no email sent")
	}
}

func TestEmailNotifier_UnknownOwner(t *testing.T) {
	n := NewEmailNotifier(&chanMailer{sent: make(chan mailer.Message, 1)}, staticUsers{})
	err := n.PostPublished(context.Background(), &Post{User: Owner{ID: "ghost"}})
	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected user.ErrNotFound, got %v", err)
	}
}

func ids(posts []Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}
