package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalStoreSaveAndOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}

	key := "blog/richtext/test-object.png"
	content := "not really a png"

	if store.Exists(ctx, key) {
		t.Fatal("object should not exist before Save")
	}

	if err := store.Save(ctx, key, strings.NewReader(content)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !store.Exists(ctx, key) {
		t.Fatal("object should exist after Save")
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("could not read object: %v", err)
	}
	if string(got) != content {
		t.Errorf("expected %q, got %q", content, string(got))
	}
}

func TestLocalStoreDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}

	key := "blog/thumbnails/gone.jpg"
	if err := store.Save(ctx, key, strings.NewReader("x")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if store.Exists(ctx, key) {
		t.Error("object should not exist after Delete")
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}

	if _, err := store.Open(ctx, "../../etc/passwd"); err == nil {
		t.Error("Open should refuse keys escaping the base dir")
	}
}
