package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/ymaps2gpx/internal/core/document"
	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/extract"
	"github.com/samirrijal/ymaps2gpx/internal/core/ports"
	"github.com/samirrijal/ymaps2gpx/internal/core/summary"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/geospatial"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/metrics"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/telemetry"
)

// ConvertOptions selects the output layout.
type ConvertOptions struct {
	Shape     synth.Shape
	Elevation bool
}

// ConversionService runs the map-state to GPX pipeline.
type ConversionService struct {
	fetcher      ports.PageFetcher
	encoder      ports.TrackEncoder
	conversions  ports.ConversionRepository
	events       ports.EventPublisher
	extractor    *extract.Extractor
	synthesizer  *synth.Synthesizer
	summaryLimit int
}

// NewConversionService creates a new ConversionService. conversions and
// events may be nil, in which case results are neither stored nor announced.
func NewConversionService(
	fetcher ports.PageFetcher,
	encoder ports.TrackEncoder,
	conversions ports.ConversionRepository,
	events ports.EventPublisher,
	extractor *extract.Extractor,
	synthesizer *synth.Synthesizer,
	summaryLimit int,
) *ConversionService {
	if extractor == nil {
		extractor = extract.New(extract.WithObserver(metrics.ObserveExtraction))
	}
	if synthesizer == nil {
		synthesizer = synth.New(nil)
	}
	return &ConversionService{
		fetcher:      fetcher,
		encoder:      encoder,
		conversions:  conversions,
		events:       events,
		extractor:    extractor,
		synthesizer:  synthesizer,
		summaryLimit: summaryLimit,
	}
}

// ExtractURL downloads a map page and extracts its features.
func (s *ConversionService) ExtractURL(ctx context.Context, url string) (domain.Extraction, error) {
	if s.fetcher == nil {
		return domain.Extraction{}, domain.NewUserError(domain.ErrFetchFailed, "Fetching map pages is not available here.")
	}

	start := time.Now()
	state, err := s.fetcher.FetchState(ctx, url)
	metrics.PageFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PageFetchErrors.Inc()
		return domain.Extraction{}, err
	}
	return s.ExtractDocument(ctx, state)
}

// ExtractDocument parses raw state JSON and extracts its features.
func (s *ConversionService) ExtractDocument(ctx context.Context, data []byte) (domain.Extraction, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "conversion.extract")
	defer span.End()

	root, err := document.Parse(data)
	if err != nil {
		span.RecordError(err)
		return domain.Extraction{}, &domain.UserError{
			Kind:    domain.ErrMalformedDocument,
			Message: "The map state could not be read as JSON.",
			Err:     err,
		}
	}

	ext, err := s.extractor.Extract(ctx, root)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Extraction{}, err
	}
	span.SetAttributes(
		attribute.Int("extract.lines", len(ext.Lines)),
		attribute.Int("extract.points", len(ext.Points)),
	)
	return ext, nil
}

// Build adds ext to doc in the requested shape. doc may be nil; the same
// document can be passed again to accumulate several extractions.
func (s *ConversionService) Build(ctx context.Context, doc *domain.TrackDocument, ext domain.Extraction, opts ConvertOptions) *domain.TrackDocument {
	ctx, span := telemetry.Tracer().Start(ctx, "conversion.synthesize")
	defer span.End()

	shape := opts.Shape
	if shape == "" {
		shape = synth.DefaultShape
	}
	return s.synthesizer.Synthesize(ctx, doc, synth.Shaped(shape, ext, opts.Elevation))
}

// Finish encodes doc, records the conversion and announces it.
func (s *ConversionService) Finish(ctx context.Context, source string, doc *domain.TrackDocument, opts ConvertOptions) (*domain.Conversion, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "conversion.encode")
	defer span.End()

	if opts.Shape == "" {
		opts.Shape = synth.DefaultShape
	}

	data, err := s.encoder.Encode(doc, "")
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("encode gpx: %w", err)
	}

	c := &domain.Conversion{
		ID:        uuid.NewString(),
		Source:    source,
		Shape:     string(opts.Shape),
		Elevation: opts.Elevation,
		Lines:     lineCount(doc),
		Points:    len(doc.Waypoints),
		Summary:   summary.Summarize(doc, s.summaryLimit),
		GPX:       data,
		CreatedAt: time.Now().UTC(),
	}
	span.SetAttributes(attribute.String("conversion.id", c.ID), attribute.Int("gpx.bytes", len(data)))
	if b, ok := geospatial.DocumentBounds(doc); ok {
		span.SetAttributes(attribute.Float64Slice("gpx.bounds", []float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon}))
	}

	logger := logging.FromContext(ctx)

	if s.conversions != nil {
		// Best-effort; the GPX is returned either way
		if err := s.conversions.Insert(ctx, c); err != nil {
			logger.Warn("conversion not recorded", "id", c.ID, "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.PublishConversion(ctx, c.Event()); err != nil {
			logger.Warn("conversion event not published", "id", c.ID, "error", err)
		}
	}
	return c, nil
}

// ConvertURL runs the whole pipeline for a map link.
func (s *ConversionService) ConvertURL(ctx context.Context, url string, opts ConvertOptions) (*domain.Conversion, error) {
	start := time.Now()
	ext, err := s.ExtractURL(ctx, url)
	if err != nil {
		observe(opts, err)
		return nil, err
	}
	c, err := s.Finish(ctx, url, s.Build(ctx, nil, ext, opts), opts)
	observe(opts, err)
	metrics.ConversionDuration.WithLabelValues(boolLabel(opts.Elevation)).Observe(time.Since(start).Seconds())
	return c, err
}

// ConvertDocument runs the pipeline for state JSON supplied by the caller.
func (s *ConversionService) ConvertDocument(ctx context.Context, data []byte, opts ConvertOptions) (*domain.Conversion, error) {
	start := time.Now()
	ext, err := s.ExtractDocument(ctx, data)
	if err != nil {
		observe(opts, err)
		return nil, err
	}
	c, err := s.Finish(ctx, "document", s.Build(ctx, nil, ext, opts), opts)
	observe(opts, err)
	metrics.ConversionDuration.WithLabelValues(boolLabel(opts.Elevation)).Observe(time.Since(start).Seconds())
	return c, err
}

// Get returns a recorded conversion.
func (s *ConversionService) Get(ctx context.Context, id string) (*domain.Conversion, error) {
	if s.conversions == nil {
		return nil, domain.ErrNotFound
	}
	return s.conversions.GetByID(ctx, id)
}

// ListRecent returns recorded conversions, newest first, and the total count.
func (s *ConversionService) ListRecent(ctx context.Context, offset, limit int) ([]domain.Conversion, int, error) {
	if s.conversions == nil {
		return []domain.Conversion{}, 0, nil
	}
	return s.conversions.ListRecent(ctx, offset, limit)
}

func observe(opts ConvertOptions, err error) {
	shape := string(opts.Shape)
	if shape == "" {
		shape = string(synth.DefaultShape)
	}
	metrics.ConversionsTotal.WithLabelValues(shape, ResultLabel(err)).Inc()
}

// ResultLabel names the outcome of a conversion for metrics and logs.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoGeodataFound):
		return "no_geodata"
	case errors.Is(err, domain.ErrUnsupportedContent):
		return "unsupported"
	case errors.Is(err, domain.ErrMalformedDocument):
		return "malformed"
	case errors.Is(err, domain.ErrDuplicatedSource):
		return "duplicated"
	case errors.Is(err, domain.ErrFetchFailed), errors.Is(err, domain.ErrNoStateView):
		return "fetch"
	default:
		return "error"
	}
}

// lineCount counts line features whatever shape they were written in.
func lineCount(doc *domain.TrackDocument) int {
	n := len(doc.Routes)
	for _, t := range doc.Tracks {
		n += len(t.Segments)
	}
	return n
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
