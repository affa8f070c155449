package storage

import (
	"encoding/json"
	"testing"
)

func TestPublicURL(t *testing.T) {
	s := &MinioStorage{publicBase: "https://cdn.example.com/posts"}
	got := s.PublicURL("task-social-app/abc.jpg")
	want := "https://cdn.example.com/posts/task-social-app/abc.jpg"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPublicReadPolicy(t *testing.T) {
	var policy struct {
		Statement []struct {
			Effect   string
			Action   string
			Resource string
		}
	}
	if err := json.Unmarshal([]byte(publicReadPolicy("posts")), &policy); err != nil {
		t.Fatalf("policy is not valid JSON: %v", err)
	}
	if len(policy.Statement) != 1 {
		t.Fatalf("expected one statement, got %d", len(policy.Statement))
	}
	st := policy.Statement[0]
	if st.Effect != "Allow" || st.Action != "s3:GetObject" {
		t.Errorf("unexpected statement %+v", st)
	}
	if st.Resource != "arn:aws:s3:::posts/*" {
		t.Errorf("unexpected resource %q", st.Resource)
	}
}
