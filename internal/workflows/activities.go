package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
	"github.com/samirrijal/ymaps2gpx/internal/core/usecases"
)

// MergeActivities holds the activity implementations for the merge workflow.
type MergeActivities struct {
	Conversions *usecases.ConversionService
}

// ExtractURL fetches one map link and returns its features. Problems with
// the page itself are not retried.
func (a *MergeActivities) ExtractURL(ctx context.Context, url string) (domain.Extraction, error) {
	ext, err := a.Conversions.ExtractURL(ctx, url)
	if err != nil {
		var ue *domain.UserError
		if errors.As(err, &ue) {
			return domain.Extraction{}, temporal.NewNonRetryableApplicationError(ue.Message, usecases.ResultLabel(err), err)
		}
		return domain.Extraction{}, fmt.Errorf("extract %s: %w", url, err)
	}
	return ext, nil
}

// BuildMerged accumulates every extraction into one document and records it.
func (a *MergeActivities) BuildMerged(ctx context.Context, input MergeInput, extractions []domain.Extraction) (MergeResult, error) {
	shape, err := synth.ParseShape(input.Shape)
	if err != nil {
		return MergeResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidShape", err)
	}
	opts := usecases.ConvertOptions{Shape: shape, Elevation: input.Elevation}

	// One synthesis pass, so elevation is looked up once per point
	var merged domain.Extraction
	for _, ext := range extractions {
		merged = merged.Merge(ext)
	}
	doc := a.Conversions.Build(ctx, nil, merged, opts)

	activity.GetLogger(ctx).Info("merged document built", "links", len(extractions), "points", doc.PointCount())

	c, err := a.Conversions.Finish(ctx, "merge:"+strings.Join(input.URLs, ","), doc, opts)
	if err != nil {
		return MergeResult{}, fmt.Errorf("finish merge: %w", err)
	}
	return MergeResult{
		ConversionID: c.ID,
		Summary:      c.Summary,
		Lines:        c.Lines,
		Points:       c.Points,
	}, nil
}
