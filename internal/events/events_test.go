package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	k "github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	msgs []k.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...k.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{w: w}

	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), Event{
		Type:          PostCreated,
		PostID:        "post-1",
		UserID:        "user-1",
		RemoteImageID: "task-social-app/a.jpg",
		At:            at,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "post-1" {
		t.Errorf("expected key post-1, got %q", msg.Key)
	}
	var got Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.Type != PostCreated || got.RemoteImageID != "task-social-app/a.jpg" || !got.At.Equal(at) {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestKafkaPublisher_StampsTime(t *testing.T) {
	w := &recordingWriter{}
	if err := (&KafkaPublisher{w: w}).Publish(context.Background(), Event{Type: PostDeleted, PostID: "p"}); err != nil {
		t.Fatal(err)
	}
	if w.msgs[0].Time.IsZero() {
		t.Error("expected event time to be set")
	}
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	cause := errors.New("leader not available")
	p := &KafkaPublisher{w: &recordingWriter{err: cause}}

	err := p.Publish(context.Background(), Event{Type: PostDeleted, PostID: "p"})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}
