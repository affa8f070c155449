package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migrations embedded")
	}

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
	for v := range downs {
		if !ups[v] {
			t.Errorf("migration %s has no up file", v)
		}
	}
}

func TestPostsSchemaKeepsImageIDUnique(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000002_create_posts.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "remote_image_id  TEXT        NOT NULL UNIQUE") {
		t.Error("posts.remote_image_id must be NOT NULL UNIQUE")
	}
}

func TestPostsSchemaBlocksOwnerDeletion(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000002_create_posts.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	sql := string(data)
	if !strings.Contains(sql, "REFERENCES users (id) ON DELETE RESTRICT") {
		t.Error("posts.user_id must restrict user deletion so remote images are never orphaned")
	}
	if strings.Contains(sql, "CASCADE") {
		t.Error("posts must not cascade from users")
	}
}
