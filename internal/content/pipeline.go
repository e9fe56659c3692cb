package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"blogapi/internal/assets"
	"blogapi/internal/storage"
	"blogapi/internal/telemetry"
)

const maxTitleLength = 200

// Upload is a file received alongside a submission.
type Upload struct {
	Filename    string
	ContentType string // as declared by the client; may be empty
	Data        io.Reader
}

type IngestInput struct {
	Title     string
	Content   string
	Thumbnail *Upload
}

// Ingestor runs a submission through the full pipeline: validate, store the
// thumbnail, externalize embedded images, sanitize, persist.
type Ingestor struct {
	assets    *assets.Store
	extractor *Extractor
	sanitizer *Sanitizer
	posts     storage.Store
	logger    *slog.Logger
	metrics   *telemetry.Metrics
}

func NewIngestor(assetStore *assets.Store, extractor *Extractor, sanitizer *Sanitizer, posts storage.Store, logger *slog.Logger, metrics *telemetry.Metrics) *Ingestor {
	return &Ingestor{
		assets:    assetStore,
		extractor: extractor,
		sanitizer: sanitizer,
		posts:     posts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Ingest validates and persists one submission. Thumbnail failures abort the
// whole request; embedded-image failures do not (the thumbnail is a single
// explicit user action, inline images are numerous and incidental).
func (i *Ingestor) Ingest(ctx context.Context, in IngestInput) (*storage.Post, error) {
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Content)

	if title == "" || body == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title cannot exceed %d characters", ErrValidation, maxTitleLength)
	}

	var thumbnailURL *string
	if in.Thumbnail != nil {
		url, err := i.storeThumbnail(ctx, in.Thumbnail)
		if err != nil {
			return nil, fmt.Errorf("%w: thumbnail: %v", ErrValidation, err)
		}
		thumbnailURL = &url
	}

	rewritten, images := i.extractor.Extract(ctx, body)
	for _, img := range images {
		if img.Err != nil {
			i.metrics.ImageExternalizeFailuresTotal.Add(ctx, 1)
			continue
		}
		i.metrics.ImagesExternalizedTotal.Add(ctx, 1)
		i.metrics.AssetsStoredTotal.Add(ctx, 1)
	}

	sanitized := i.sanitizer.Sanitize(rewritten)

	post, err := i.posts.CreatePost(ctx, title, sanitized, thumbnailURL)
	if err != nil {
		return nil, fmt.Errorf("could not persist post: %w", err)
	}

	i.metrics.PostsCreatedTotal.Add(ctx, 1)
	i.logger.Info("post created", "id", post.ID, "title", post.Title, "images", len(images), "has_thumbnail", thumbnailURL != nil)

	return post, nil
}

func (i *Ingestor) storeThumbnail(ctx context.Context, upload *Upload) (string, error) {
	data, err := io.ReadAll(upload.Data)
	if err != nil {
		return "", fmt.Errorf("could not read upload: %w", err)
	}

	mimeType := upload.ContentType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mime.TypeByExtension(filepath.Ext(upload.Filename))
	}

	url, err := i.assets.Store(ctx, assets.CategoryThumbnail, data, mimeType)
	if err != nil {
		return "", err
	}
	i.metrics.AssetsStoredTotal.Add(ctx, 1)
	return url, nil
}
