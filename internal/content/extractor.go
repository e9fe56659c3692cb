package content

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"blogapi/internal/assets"
)

// embeddedImagePattern matches inline base64 images the way rich-text editors
// emit them: data:image/<subtype>;base64,<payload>.
var embeddedImagePattern = regexp.MustCompile(`data:image/([a-z]+);base64,([A-Za-z0-9+/=]+)`)

// ImageResult is the outcome of externalizing one embedded image. Failures
// are carried to the caller instead of being swallowed here, so tests and
// logs can see exactly which image failed and why.
type ImageResult struct {
	Subtype string
	URL     string // set on success
	Err     error  // set on failure; the data URI stays in the content
}

// Extractor moves embedded base64 images out of rich-text content into the
// asset store and rewrites the content to reference the stored URLs.
type Extractor struct {
	assets *assets.Store
	logger *slog.Logger
}

func NewExtractor(assetStore *assets.Store, logger *slog.Logger) *Extractor {
	return &Extractor{assets: assetStore, logger: logger}
}

// Extract externalizes every embedded image in content, best-effort: a failed
// image is logged, recorded in the result slice and left untouched in the
// output so a single bad payload never aborts the whole submission.
//
// Identical data-URI strings are processed once; every occurrence is replaced
// with the first resolved URL. Two visually identical images therefore share
// one stored asset.
func (e *Extractor) Extract(ctx context.Context, content string) (string, []ImageResult) {
	matches := embeddedImagePattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return content, nil
	}

	results := make([]ImageResult, 0, len(matches))
	seen := make(map[string]bool, len(matches))

	for _, match := range matches {
		dataURI, subtype, payload := match[0], match[1], match[2]
		if seen[dataURI] {
			continue
		}
		seen[dataURI] = true

		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrBadPayload, err)
			e.logger.Warn("skipping embedded image", "subtype", subtype, "err", err)
			results = append(results, ImageResult{Subtype: subtype, Err: err})
			continue
		}

		url, err := e.assets.Store(ctx, assets.CategoryRichText, decoded, "image/"+subtype)
		if err != nil {
			e.logger.Warn("could not externalize embedded image", "subtype", subtype, "err", err)
			results = append(results, ImageResult{Subtype: subtype, Err: err})
			continue
		}

		content = strings.ReplaceAll(content, dataURI, url)
		results = append(results, ImageResult{Subtype: subtype, URL: url})
	}

	return content, results
}
