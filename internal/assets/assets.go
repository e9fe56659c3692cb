package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/gofrs/uuid/v5"

	"blogapi/internal/storage"
)

// Field categories an upload can belong to. Each category carries its own
// MIME allow-list and key prefix.
const (
	CategoryThumbnail = "thumbnail"
	CategoryRichText  = "richtext"
)

var (
	ErrUnknownCategory     = errors.New("unknown upload category")
	ErrUnsupportedMIMEType = errors.New("unsupported mime type")
	ErrStorageWrite        = errors.New("storage write failed")
)

type CategoryConfig struct {
	// MaxCount is informational: callers may use it to bound a request,
	// the store itself does not enforce it.
	MaxCount         int
	AllowedMIMETypes []string
	StorageLocation  string // key prefix objects of this category are grouped under
}

func DefaultCategories() map[string]CategoryConfig {
	return map[string]CategoryConfig{
		CategoryThumbnail: {
			MaxCount:         1,
			AllowedMIMETypes: []string{"image/jpeg", "image/jpg", "image/png", "image/gif"},
			StorageLocation:  "blog/thumbnails",
		},
		CategoryRichText: {
			MaxCount:         6,
			AllowedMIMETypes: []string{"image/png", "image/jpeg", "image/jpg"},
			StorageLocation:  "blog/richtext",
		},
	}
}

// VariantEnqueuer schedules derived-image generation for a stored object.
// Best-effort: implementations must never fail the original write.
type VariantEnqueuer interface {
	EnqueueVariants(ctx context.Context, key string)
}

// Store persists image payloads through a storage.Provider and hands back the
// URL the stored object is reachable under.
type Store struct {
	provider      storage.Provider
	categories    map[string]CategoryConfig
	publicBaseURL string
	variants      VariantEnqueuer // may be nil
	logger        *slog.Logger
}

func NewStore(provider storage.Provider, categories map[string]CategoryConfig, publicBaseURL string, variants VariantEnqueuer, logger *slog.Logger) *Store {
	return &Store{
		provider:      provider,
		categories:    categories,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		variants:      variants,
		logger:        logger,
	}
}

// Store validates the declared MIME type against the category's allow-list,
// persists the payload under a collision-resistant key and returns the URL.
func (s *Store) Store(ctx context.Context, category string, data []byte, declaredMIME string) (string, error) {
	cfg, ok := s.categories[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	mimeType := strings.ToLower(strings.TrimSpace(declaredMIME))
	if !slices.Contains(cfg.AllowedMIMETypes, mimeType) {
		return "", fmt.Errorf("%w: %s only accepts %s, got %q",
			ErrUnsupportedMIMEType, category, strings.Join(cfg.AllowedMIMETypes, ", "), mimeType)
	}

	key, err := s.objectKey(cfg, mimeType)
	if err != nil {
		return "", err
	}

	if err := s.provider.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrStorageWrite, key, err)
	}

	s.logger.Info("asset stored", "category", category, "key", key, "bytes", len(data))

	if s.variants != nil {
		s.variants.EnqueueVariants(ctx, key)
	}

	publicURL, err := url.JoinPath(s.publicBaseURL+"/", key)
	if err != nil {
		return "", fmt.Errorf("could not build public url for %s: %w", key, err)
	}
	return publicURL, nil
}

// objectKey builds <prefix>/<uuidv7><ext>. A v7 uuid is a high-resolution
// timestamp plus a random component, so concurrent uploads in the same
// category cannot collide.
func (s *Store) objectKey(cfg CategoryConfig, mimeType string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("could not generate object name: %w", err)
	}
	return path.Join(cfg.StorageLocation, id.String()+extensionFor(mimeType)), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}

	// fall back to the subtype itself
	if _, subtype, found := strings.Cut(mimeType, "/"); found && subtype != "" {
		return "." + subtype
	}
	return ""
}
