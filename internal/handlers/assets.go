package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"blogapi/internal/assets"
	"blogapi/internal/content"
	"blogapi/internal/storage"
	"blogapi/internal/telemetry"
)

type AssetHandler struct {
	Provider storage.Provider
	Variants assets.VariantEnqueuer
	Tracer   trace.Tracer
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger
}

const cacheForAYear = 31536000

// ServeHTTP serves stored objects under /uploads/{key...}. A ?w=<width> query
// asks for a downscaled webp variant; when the variant does not exist yet the
// original is served and generation is kicked off for next time.
func (h *AssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.Tracer.Start(r.Context(), "AssetHandler.ServeHTTP")
	defer span.End()

	key := r.PathValue("key")
	if key == "" || strings.Contains(key, "..") {
		http.NotFound(w, r)
		return
	}

	if widthStr := r.URL.Query().Get("w"); widthStr != "" {
		requestedWidth, err := strconv.Atoi(widthStr)
		if err != nil || !slices.Contains(content.VariantWidths, requestedWidth) {
			http.Error(w, "unsupported width", http.StatusBadRequest)
			return
		}

		variantKey := fmt.Sprintf("%s_%d.webp", strings.TrimSuffix(key, path.Ext(key)), requestedWidth)
		if h.Provider.Exists(ctx, variantKey) {
			span.SetAttributes(attribute.String("cache.status", "hit"))
			h.Metrics.VariantCacheHitsTotal.Add(ctx, 1)

			w.Header().Set("X-Cache", "HIT")
			h.serveObject(w, r, variantKey)
			return
		}

		span.SetAttributes(attribute.String("cache.status", "miss"))
		h.Metrics.VariantCacheMissesTotal.Add(ctx, 1)
		w.Header().Set("X-Cache", "MISS")

		// generate for the next request, serve the original this time
		h.Variants.EnqueueVariants(ctx, key)
	}

	h.serveObject(w, r, key)
}

func (h *AssetHandler) serveObject(w http.ResponseWriter, r *http.Request, key string) {
	reader, err := h.Provider.Open(r.Context(), key)
	if err != nil {
		h.Logger.Warn("asset not found", "key", key, "err", err)
		http.NotFound(w, r)
		return
	}
	defer reader.Close()

	mimeType := mime.TypeByExtension(path.Ext(key))
	if mimeType == "" {
		mimeType = "application/octet-stream" // fallback
	}
	w.Header().Set("Content-Type", mimeType)

	// objects are written once under a uuid key, safe to cache forever
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", cacheForAYear))

	if _, err := io.Copy(w, reader); err != nil {
		h.Logger.Warn("stream interrupted", "key", key, "err", err)
	}
}
