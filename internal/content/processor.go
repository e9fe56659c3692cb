package content

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"blogapi/internal/assets"
	"blogapi/internal/storage"
)

// VariantWidths are the webp sizes generated for every stored image.
var VariantWidths = []int{480, 800, 1200}

type ImageJob struct {
	SourceKey string
	Width     int
}

// Processor generates downscaled webp variants of stored images in a bounded
// worker pool. Everything here is best-effort: a failed variant never affects
// the asset or the post that references it.
type Processor struct {
	jobs     chan ImageJob
	wg       sync.WaitGroup
	logger   *slog.Logger
	inFlight sync.Map
	store    storage.Provider
	tracer   trace.Tracer
}

var _ assets.VariantEnqueuer = (*Processor)(nil)

func NewProcessor(ctx context.Context, store storage.Provider, workerCount int, logger *slog.Logger) *Processor {
	p := &Processor{
		jobs:   make(chan ImageJob, 25),
		logger: logger,
		store:  store,
		tracer: otel.Tracer("blogapi/content/processor"),
	}

	for i := range workerCount {
		p.wg.Go(func() {
			p.worker(ctx, i)
		})
	}

	go func() {
		<-ctx.Done()
		p.logger.Info("image processor received shutdown signal")
		close(p.jobs)
		p.wg.Wait()
		p.logger.Info("image processor shutdown complete")
	}()

	return p
}

// EnqueueVariants schedules every configured width for the given object.
// Webp objects are variants themselves and are skipped.
func (p *Processor) EnqueueVariants(ctx context.Context, key string) {
	if strings.HasSuffix(key, ".webp") {
		return
	}
	for _, width := range VariantWidths {
		if err := p.enqueue(ctx, ImageJob{SourceKey: key, Width: width}); err != nil {
			p.logger.Warn("variant job dropped", "key", key, "width", width, "err", err)
		}
	}
}

func (p *Processor) enqueue(ctx context.Context, job ImageJob) error {
	key := variantKey(job.SourceKey, job.Width)

	// no duplicated jobs
	if _, loaded := p.inFlight.LoadOrStore(key, struct{}{}); loaded {
		return nil
	}

	select {
	case <-ctx.Done():
		p.inFlight.Delete(key)
		return ctx.Err()
	case p.jobs <- job:
		return nil
	default:
		p.inFlight.Delete(key)
		return fmt.Errorf("image processor queue full")
	}
}

func (p *Processor) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processJob(ctx, id, job)
			p.inFlight.Delete(variantKey(job.SourceKey, job.Width))
		}
	}
}

func (p *Processor) processJob(ctx context.Context, id int, job ImageJob) {
	ctx, span := p.tracer.Start(ctx, "ProcessJob",
		trace.WithAttributes(
			attribute.String("image.key", job.SourceKey),
			attribute.Int("image.width", job.Width),
		),
	)
	defer span.End()

	destKey := variantKey(job.SourceKey, job.Width)

	p.logger.Info("worker processing image variant", "worker_id", id, "key", job.SourceKey, "variant", job.Width)

	// any other worker has done this?
	if p.store.Exists(ctx, destKey) {
		return
	}

	if ctx.Err() != nil {
		return
	}

	reader, err := p.store.Open(ctx, job.SourceKey)
	if err != nil {
		p.logger.Error("failed to open source image", "key", job.SourceKey, "err", err)
		return
	}
	defer reader.Close()

	_, cpuSpan := p.tracer.Start(ctx, "GenerateVariant.CPU")
	processedBuffer, err := p.generateVariant(ctx, reader, job.Width)
	cpuSpan.End()
	if err != nil {
		p.logger.Error("variant failed", "worker", id, "variant", job.Width, "err", err)
		return
	}

	if err := p.store.Save(ctx, destKey, processedBuffer); err != nil {
		p.logger.Error("failed to store variant", "key", destKey, "err", err)
	}
}

func (p *Processor) generateVariant(ctx context.Context, r io.Reader, width int) (io.Reader, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if img.Bounds().Dx() > width {
		img = p.resizeImage(img, width)
	}

	var buf bytes.Buffer
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 75)
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}

	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

func (p *Processor) resizeImage(source image.Image, maxWidth int) image.Image {
	b := source.Bounds()
	currentWidth := b.Dx()

	// scale down only
	if currentWidth <= maxWidth {
		return source
	}

	newHeight := (b.Dy() * maxWidth) / currentWidth

	dest := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))

	// bilinear has a good quality / speed tradeoff
	draw.BiLinear.Scale(dest, dest.Bounds(), source, source.Bounds(), draw.Over, nil)

	return dest
}

// variantKey derives the object key a width variant is stored under:
// blog/richtext/<name>.png -> blog/richtext/<name>_800.webp
func variantKey(sourceKey string, width int) string {
	base := strings.TrimSuffix(sourceKey, path.Ext(sourceKey))
	return fmt.Sprintf("%s_%d.webp", base, width)
}
