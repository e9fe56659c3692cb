package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"blogapi/internal/assets"
	"blogapi/internal/storage"
	"blogapi/internal/telemetry"
)

// fakePostStore records CreatePost calls in memory.
type fakePostStore struct {
	posts     []*storage.Post
	createErr error
}

func (f *fakePostStore) CreatePost(ctx context.Context, title, content string, thumbnail *string) (*storage.Post, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	post := &storage.Post{
		ID:        fmt.Sprintf("post-%d", len(f.posts)+1),
		Title:     title,
		Content:   content,
		Thumbnail: thumbnail,
	}
	f.posts = append(f.posts, post)
	return post, nil
}

func (f *fakePostStore) GetAllPosts(ctx context.Context) ([]*storage.Post, error) {
	return f.posts, nil
}

func (f *fakePostStore) GetPostByID(ctx context.Context, id string) (*storage.Post, error) {
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakePostStore) Close() error { return nil }

func testIngestor(t *testing.T) (*Ingestor, *fakePostStore, *storage.LocalStore) {
	t.Helper()

	provider, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	logger := slog.New(slog.DiscardHandler)
	assetStore := assets.NewStore(provider, assets.DefaultCategories(), "/uploads", nil, logger)
	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter(""))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	posts := &fakePostStore{}
	ingestor := NewIngestor(assetStore, NewExtractor(assetStore, logger), NewSanitizer(DefaultSanitizerRules()), posts, logger, metrics)
	return ingestor, posts, provider
}

func TestIngestCreatesPost(t *testing.T) {
	t.Parallel()
	ingestor, posts, _ := testIngestor(t)

	post, err := ingestor.Ingest(context.Background(), IngestInput{
		Title:   "  First post  ",
		Content: `<p>hello <script>alert(1)</script>world</p>`,
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if post.Title != "First post" {
		t.Errorf("title must be trimmed, got %q", post.Title)
	}
	if post.Thumbnail != nil {
		t.Errorf("expected nil thumbnail, got %q", *post.Thumbnail)
	}
	if strings.Contains(post.Content, "script") {
		t.Errorf("content must be sanitized, got %q", post.Content)
	}
	if !strings.Contains(post.Content, "hello") {
		t.Errorf("safe content must survive, got %q", post.Content)
	}
	if len(posts.posts) != 1 {
		t.Fatalf("expected 1 persisted post, got %d", len(posts.posts))
	}
}

func TestIngestValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input IngestInput
	}{
		{"missing title", IngestInput{Content: "<p>body</p>"}},
		{"missing content", IngestInput{Title: "a title"}},
		{"whitespace only title", IngestInput{Title: "   ", Content: "<p>body</p>"}},
		{"title too long", IngestInput{Title: strings.Repeat("x", 201), Content: "<p>body</p>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ingestor, posts, _ := testIngestor(t)

			_, err := ingestor.Ingest(context.Background(), tt.input)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if len(posts.posts) != 0 {
				t.Errorf("nothing may be persisted on validation failure")
			}
		})
	}
}

func TestIngestTitleAtLimit(t *testing.T) {
	t.Parallel()
	ingestor, _, _ := testIngestor(t)

	_, err := ingestor.Ingest(context.Background(), IngestInput{
		Title:   strings.Repeat("x", 200),
		Content: "<p>body</p>",
	})
	if err != nil {
		t.Fatalf("200 character title must be accepted, got %v", err)
	}
}

func TestIngestStoresThumbnail(t *testing.T) {
	t.Parallel()
	ingestor, posts, provider := testIngestor(t)

	post, err := ingestor.Ingest(context.Background(), IngestInput{
		Title:   "with thumbnail",
		Content: "<p>body</p>",
		Thumbnail: &Upload{
			Filename:    "cover.png",
			ContentType: "image/png",
			Data:        bytes.NewReader([]byte("png bytes")),
		},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if post.Thumbnail == nil {
		t.Fatal("expected a thumbnail URL")
	}
	key := strings.TrimPrefix(*post.Thumbnail, "/uploads/")
	if !provider.Exists(context.Background(), key) {
		t.Errorf("thumbnail object %q not found in storage", key)
	}
	if len(posts.posts) != 1 {
		t.Fatalf("expected 1 persisted post, got %d", len(posts.posts))
	}
}

func TestIngestThumbnailTypeFromExtension(t *testing.T) {
	t.Parallel()
	ingestor, _, _ := testIngestor(t)

	// browsers sometimes send octet-stream; the filename decides then
	post, err := ingestor.Ingest(context.Background(), IngestInput{
		Title:   "sniffed thumbnail",
		Content: "<p>body</p>",
		Thumbnail: &Upload{
			Filename:    "cover.jpg",
			ContentType: "application/octet-stream",
			Data:        bytes.NewReader([]byte("jpeg bytes")),
		},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if post.Thumbnail == nil {
		t.Fatal("expected a thumbnail URL")
	}
}

func TestIngestRejectsBadThumbnail(t *testing.T) {
	t.Parallel()
	ingestor, posts, _ := testIngestor(t)

	_, err := ingestor.Ingest(context.Background(), IngestInput{
		Title:   "bad thumbnail",
		Content: "<p>body</p>",
		Thumbnail: &Upload{
			Filename:    "notes.pdf",
			ContentType: "application/pdf",
			Data:        bytes.NewReader([]byte("%PDF-1.4")),
		},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unsupported thumbnail type, got %v", err)
	}
	if len(posts.posts) != 0 {
		t.Errorf("nothing may be persisted when the thumbnail is rejected")
	}
}

func TestIngestExternalizesEmbeddedImages(t *testing.T) {
	t.Parallel()
	ingestor, posts, provider := testIngestor(t)

	input := fmt.Sprintf(`<p>intro</p><img src="%s"><p>outro</p>`, dataURI("png", []byte("inline image")))

	post, err := ingestor.Ingest(context.Background(), IngestInput{Title: "inline", Content: input})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if strings.Contains(post.Content, "base64") {
		t.Errorf("no data URI may survive ingestion, got %q", post.Content)
	}
	if !strings.Contains(post.Content, "/uploads/blog/richtext/") {
		t.Errorf("expected a rewritten asset URL, got %q", post.Content)
	}

	// the stored object must be fetchable under the rewritten key
	start := strings.Index(post.Content, "/uploads/") + len("/uploads/")
	end := strings.IndexAny(post.Content[start:], `"`)
	key := post.Content[start : start+end]
	if !provider.Exists(context.Background(), key) {
		t.Errorf("externalized object %q not found in storage", key)
	}
	if len(posts.posts) != 1 {
		t.Fatalf("expected 1 persisted post, got %d", len(posts.posts))
	}
}

func TestIngestKeepsPostOnImageFailure(t *testing.T) {
	t.Parallel()
	ingestor, posts, _ := testIngestor(t)

	// gif is not accepted inline; the post must still go through
	bad := dataURI("gif", []byte("gif bytes"))
	input := fmt.Sprintf(`<p>text</p><img src="%s">`, bad)

	post, err := ingestor.Ingest(context.Background(), IngestInput{Title: "partial", Content: input})
	if err != nil {
		t.Fatalf("embedded image failures must not abort ingestion: %v", err)
	}

	if !strings.Contains(post.Content, bad) {
		t.Errorf("failed embedded image must remain in the content, got %q", post.Content)
	}
	if len(posts.posts) != 1 {
		t.Fatalf("expected 1 persisted post, got %d", len(posts.posts))
	}
}

func TestIngestStorageError(t *testing.T) {
	t.Parallel()
	ingestor, posts, _ := testIngestor(t)
	posts.createErr = errors.New("disk full")

	_, err := ingestor.Ingest(context.Background(), IngestInput{Title: "t", Content: "<p>c</p>"})
	if err == nil {
		t.Fatal("expected an error when persistence fails")
	}
	if errors.Is(err, ErrValidation) {
		t.Errorf("storage failures are not validation errors: %v", err)
	}
}
