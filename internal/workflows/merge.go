package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

// TaskQueue is the default queue the merge worker polls.
const TaskQueue = "gpx-merge-queue"

// MergeInput is the input for the merge workflow.
type MergeInput struct {
	URLs      []string
	Shape     string
	Elevation bool
}

// MergeResult describes the combined file.
type MergeResult struct {
	ConversionID string
	Summary      string
	Lines        int
	Points       int
	Failed       []string
}

// ErrNothingToMerge is returned when no link yielded any feature.
var ErrNothingToMerge = errors.New("no link could be converted")

// MergeWorkflow extracts every link, then writes all features into a
// single GPX file. A link that fails is reported in the result and does
// not stop the others.
func MergeWorkflow(ctx workflow.Context, input MergeInput) (*MergeResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting merge workflow", "urls", len(input.URLs))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: extract all links in parallel
	futures := make([]workflow.Future, len(input.URLs))
	for i, u := range input.URLs {
		futures[i] = workflow.ExecuteActivity(ctx, "ExtractURL", u)
	}

	var (
		extractions []domain.Extraction
		failed      []string
	)
	for i, f := range futures {
		var ext domain.Extraction
		if err := f.Get(ctx, &ext); err != nil {
			logger.Warn("link skipped", "url", input.URLs[i], "error", err)
			failed = append(failed, input.URLs[i])
			continue
		}
		extractions = append(extractions, ext)
	}
	if len(extractions) == 0 {
		return &MergeResult{Failed: failed}, temporal.NewNonRetryableApplicationError(
			ErrNothingToMerge.Error(), "NothingToMerge", ErrNothingToMerge)
	}

	// Step 2: build, encode and record the combined document
	var result MergeResult
	err := workflow.ExecuteActivity(ctx, "BuildMerged", input, extractions).Get(ctx, &result)
	if err != nil {
		return nil, err
	}
	result.Failed = failed

	logger.Info("Merge finished", "conversion", result.ConversionID, "failed", len(failed))
	return &result, nil
}
