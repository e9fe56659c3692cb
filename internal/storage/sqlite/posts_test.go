package sqlite

import (
	"context"
	"errors"
	"os"
	"testing"

	"blogapi/internal/storage"
)

func TestStoreImplementsInterface(t *testing.T) {
	t.Parallel()
	var _ storage.Store = (*Store)(nil)
}

func TestNewStore(t *testing.T) {
	t.Parallel()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir := t.TempDir()
	dbPath, _ := os.CreateTemp(tempDir, "test_blog.*.db")

	store, err := NewStore(dbPath.Name())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.Migrate("../../../migrations"); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestCreatePost(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	thumb := "/uploads/blog/thumbnails/abc.png"
	post, err := store.CreatePost(ctx, "First post", "<p>hello</p>", &thumb)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if post.ID == "" {
		t.Error("expected a store-assigned id")
	}
	if post.Title != "First post" {
		t.Errorf("expected title %q, got %q", "First post", post.Title)
	}
	if post.Thumbnail == nil || *post.Thumbnail != thumb {
		t.Errorf("expected thumbnail %q, got %v", thumb, post.Thumbnail)
	}
	if post.CreatedAt.IsZero() || post.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set on creation")
	}
}

func TestCreatePostWithoutThumbnail(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, "No thumb", "<p>text only</p>", nil)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if post.Thumbnail != nil {
		t.Errorf("expected nil thumbnail, got %v", *post.Thumbnail)
	}
}

func TestCreatePostEmptyTitleRejected(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.CreatePost(ctx, "", "<p>content</p>", nil)
	if !errors.Is(err, storage.ErrCheckViolation) {
		t.Fatalf("expected check violation, got %v", err)
	}
}

func TestGetPostByID(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	created, err := store.CreatePost(ctx, "Findable", "<p>body</p>", nil)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	got, err := store.GetPostByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPostByID failed: %v", err)
	}
	if got.ID != created.ID || got.Title != created.Title {
		t.Errorf("expected %+v, got %+v", created, got)
	}
}

func TestGetPostByIDNotFound(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetPostByID(ctx, "0191e9b2-0000-7000-8000-000000000000")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllPostsEmpty(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	posts, err := store.GetAllPosts(ctx)
	if err != nil {
		t.Fatalf("GetAllPosts on empty store should not error, got %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("expected no posts, got %d", len(posts))
	}
}

func TestGetAllPostsOrder(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.CreatePost(ctx, "older", "<p>1</p>", nil)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	second, err := store.CreatePost(ctx, "newer", "<p>2</p>", nil)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	posts, err := store.GetAllPosts(ctx)
	if err != nil {
		t.Fatalf("GetAllPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}

	// newest first; same-second inserts fall back to id order (v7 is time-sorted)
	if posts[0].ID != second.ID || posts[1].ID != first.ID {
		t.Errorf("expected [%s %s], got [%s %s]", second.ID, first.ID, posts[0].ID, posts[1].ID)
	}
}
