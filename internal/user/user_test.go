package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskgram/service/internal/middleware"
)

type memStore struct {
	users map[string]*User
}

func (m *memStore) Create(_ context.Context, name, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrAlreadyExists
		}
	}
	u := &User{ID: "u-" + name, Name: name, Email: email, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func TestService_Create(t *testing.T) {
	svc := NewService(&memStore{users: map[string]*User{}})

	u, err := svc.Create(context.Background(), "  Ada ", "Ada Lovelace <Ada@Example.com>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Name != "Ada" || u.Email != "ada@example.com" {
		t.Errorf("unexpected user %+v", u)
	}

	if _, err := svc.Create(context.Background(), "Ada", "ada@example.com"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "", "x@example.com"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "Bob", "not-an-email"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad email, got %v", err)
	}
}

func TestHandler_GetMe(t *testing.T) {
	store := &memStore{users: map[string]*User{
		"u-1": {ID: "u-1", Name: "Ada", Email: "ada@example.com"},
	}}
	h := NewHandler(NewService(store))

	cases := []struct {
		name   string
		userID string
		want   int
	}{
		{"found", "u-1", http.StatusOK},
		{"unknown user", "u-2", http.StatusNotFound},
		{"no identity", "", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tc.userID != "" {
				req = req.WithContext(middleware.WithUserID(req.Context(), tc.userID))
			}
			rec := httptest.NewRecorder()
			h.GetMe(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if tc.want != http.StatusOK {
				return
			}
			var env struct {
				Data User `json:"data"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatal(err)
			}
			if env.Data.Name != "Ada" {
				t.Errorf("unexpected user %+v", env.Data)
			}
		})
	}
}
