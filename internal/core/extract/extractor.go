// Package extract finds routes, tracks and placemarks in a map page's state
// document.
package extract

import (
	"context"

	"github.com/samirrijal/ymaps2gpx/internal/core/document"
	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
)

// Strategy names, in execution order.
const (
	StrategyUserFeatures  = "user_features"
	StrategyRoutePoints   = "route_points"
	StrategyComputedRoute = "computed_route"
	StrategyRuler         = "ruler"
)

// Observer is told how many features each strategy contributed.
type Observer func(strategy string, lines, points int)

type strategy struct {
	name string
	run  func(ctx context.Context, root document.Node) outcome
}

// Extractor runs the extraction strategies over a document.
type Extractor struct {
	helpURL    string
	observe    Observer
	strategies []strategy
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHelpURL sets the link embedded in user-facing errors.
func WithHelpURL(u string) Option {
	return func(x *Extractor) {
		if u != "" {
			x.helpURL = u
		}
	}
}

// WithObserver registers a per-strategy callback.
func WithObserver(o Observer) Option {
	return func(x *Extractor) { x.observe = o }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{helpURL: DefaultHelpURL}
	for _, o := range opts {
		o(x)
	}
	x.strategies = []strategy{
		{StrategyUserFeatures, x.userFeatures},
		{StrategyRoutePoints, x.routePoints},
		{StrategyComputedRoute, x.computedRoute},
		{StrategyRuler, x.ruler},
	}
	return x
}

// Extract returns every line and point feature found in root.
//
// Strategies that do not find their part of the document are skipped. A
// document-level malformation is returned at once; a malformation local to
// one strategy lets the others run and is returned afterwards, taking
// precedence over whatever they found. When nothing is found the error
// explains why, distinguishing unsupported content from an empty map.
func (x *Extractor) Extract(ctx context.Context, root document.Node) (domain.Extraction, error) {
	if !root.IsObject() {
		return domain.Extraction{}, x.malformedError("the state is a " + root.Kind().String() + ", not an object")
	}

	logger := logging.FromContext(ctx)
	var (
		result   domain.Extraction
		firstErr error
	)
	for _, s := range x.strategies {
		o := s.run(ctx, root)
		switch o.kind {
		case outcomeMalformed:
			if o.documentLevel {
				return domain.Extraction{}, o.err
			}
			logger.Warn("extraction strategy failed", "strategy", s.name, "error", o.err)
			if firstErr == nil {
				firstErr = o.err
			}
		case outcomeOK:
			result.Lines = append(result.Lines, o.found.Lines...)
			result.Points = append(result.Points, o.found.Points...)
			if x.observe != nil {
				x.observe(s.name, len(o.found.Lines), len(o.found.Points))
			}
		}
	}

	if firstErr != nil {
		return domain.Extraction{}, firstErr
	}
	if result.Empty() {
		return domain.Extraction{}, x.diagnose(root)
	}
	return result, nil
}
