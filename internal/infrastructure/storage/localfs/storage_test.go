package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveOpenDelete(t *testing.T) {
	dir := t.TempDir()
	storage, err := New(dir, "http://localhost:8080/uploads/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()
	key := "user-1/original/a b.png"

	if err := storage.Save(ctx, key, "image/png", strings.NewReader("png")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "user-1", "original", "a b.png"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(raw) != "png" {
		t.Fatalf("unexpected content %q", raw)
	}
	if got := storage.URL(key); got != "http://localhost:8080/uploads/user-1/original/a%20b.png" {
		t.Fatalf("unexpected url %s", got)
	}

	if err := storage.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "user-1", "original", "a b.png")); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err = %v", err)
	}
	if err := storage.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() of missing key error = %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	storage, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := storage.Save(context.Background(), "../escape.png", "", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}
