package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all the metric instruments for the blog API
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// ingestion
	PostsCreatedTotal             metric.Int64Counter
	ImagesExternalizedTotal       metric.Int64Counter
	ImageExternalizeFailuresTotal metric.Int64Counter
	AssetsStoredTotal             metric.Int64Counter
	// uploads serving
	VariantCacheHitsTotal   metric.Int64Counter
	VariantCacheMissesTotal metric.Int64Counter
	// limiter
	RateLimitHitsTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests: %w", err)
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request latency in ms"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration: %w", err)
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests: %w", err)
	}

	postsCreatedTotal, err := meter.Int64Counter(
		"posts_created",
		metric.WithDescription("Total number of blog posts created"),
		metric.WithUnit("{post}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts_created: %w", err)
	}

	imagesExternalizedTotal, err := meter.Int64Counter(
		"images_externalized",
		metric.WithDescription("Number of embedded images moved to asset storage"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create images_externalized: %w", err)
	}

	imageExternalizeFailuresTotal, err := meter.Int64Counter(
		"image_externalize_failures",
		metric.WithDescription("Number of embedded images that could not be externalized"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create image_externalize_failures: %w", err)
	}

	assetsStoredTotal, err := meter.Int64Counter(
		"assets_stored",
		metric.WithDescription("Total number of objects written to asset storage"),
		metric.WithUnit("{object}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assets_stored: %w", err)
	}

	variantCacheHitsTotal, err := meter.Int64Counter(
		"variant_cache_hits",
		metric.WithDescription("Upload requests served from a pre-generated variant"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create variant_cache_hits: %w", err)
	}

	variantCacheMissesTotal, err := meter.Int64Counter(
		"variant_cache_misses",
		metric.WithDescription("Upload requests that fell back to the original object"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create variant_cache_misses: %w", err)
	}

	rateLimitHitsTotal, err := meter.Int64Counter(
		"rate_limit_hits",
		metric.WithDescription("Number of rate limiter blocked requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate_limit_hits: %w", err)
	}

	return &Metrics{
		HTTPRequestsTotal:             httpRequestsTotal,
		HTTPRequestDuration:           httpRequestDuration,
		HTTPActiveRequests:            httpActiveRequests,
		PostsCreatedTotal:             postsCreatedTotal,
		ImagesExternalizedTotal:       imagesExternalizedTotal,
		ImageExternalizeFailuresTotal: imageExternalizeFailuresTotal,
		AssetsStoredTotal:             assetsStoredTotal,
		VariantCacheHitsTotal:         variantCacheHitsTotal,
		VariantCacheMissesTotal:       variantCacheMissesTotal,
		RateLimitHitsTotal:            rateLimitHitsTotal,
	}, nil
}
