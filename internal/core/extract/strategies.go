package extract

import (
	"context"
	"fmt"

	"github.com/samirrijal/ymaps2gpx/internal/core/document"
	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
)

// Labels used when the document does not name a feature.
const (
	PointOfInterestLabel = "Point of interest"
	RouteLabel           = "Route"
	RulerLabel           = "Ruler"
)

const (
	userFeaturesPath = "config.userMap.features"
	routePointsPath  = "config.routePoints"
	routesPath       = "config.routerResponse.routes"
	routeIndexPath   = "config.query.rtn"
	rulerPointsPath  = "config.ruler.points"
	longRouteMarker  = "config.routerResponse.coordinatesOmitted"
	bookmarksListKey = "bookmarksPublicList"

	featureTypeLine  = "line"
	featureTypePlace = "placemark"

	metersPerKilometer = 1000.0
)

// userFeatures reads objects drawn by the map's author. A shape mismatch
// here means the whole document is not what we think it is.
func (x *Extractor) userFeatures(_ context.Context, root document.Node) outcome {
	features := root.At(userFeaturesPath)
	if !features.Exists() || features.Kind() == document.KindNull {
		return absent()
	}
	if !features.IsArray() {
		return corrupt(x.malformedError(fmt.Sprintf("drawn objects are a %s, not a list", features.Kind())))
	}

	var out domain.Extraction
	for i, f := range features.Items() {
		if !f.IsObject() {
			return corrupt(x.malformedError(fmt.Sprintf("drawn object #%d is a %s", i+1, f.Kind())))
		}
		kind, _ := f.Get("type").Text()
		name, _ := f.Get("title").Text()

		switch kind {
		case featureTypeLine:
			geometry := f.Get("geometry")
			if !geometry.IsObject() {
				return corrupt(x.malformedError(fmt.Sprintf("line #%d has no geometry", i+1)))
			}
			coords, ok := geometry.Get("coordinates").LineString()
			if !ok || len(coords) == 0 {
				return corrupt(x.malformedError(fmt.Sprintf("line #%d has invalid coordinates", i+1)))
			}
			out.Lines = append(out.Lines, domain.NewLine(name, coords))
		case featureTypePlace:
			c, ok := f.Get("coordinates").Coordinate()
			if !ok {
				return corrupt(x.malformedError(fmt.Sprintf("placemark #%d has invalid coordinates", i+1)))
			}
			out.Points = append(out.Points, domain.NewPoint(name, c))
		}
	}
	return found(out)
}

// routePoints reads the waypoints typed into the router panel.
func (x *Extractor) routePoints(_ context.Context, root document.Node) outcome {
	points := root.At(routePointsPath)
	if !points.Exists() || points.Kind() == document.KindNull {
		return absent()
	}
	if !points.IsArray() {
		return malformed(x.malformedError(fmt.Sprintf("route points are a %s, not a list", points.Kind())))
	}

	var out domain.Extraction
	for i, p := range points.Items() {
		if !p.IsObject() {
			return malformed(x.malformedError(fmt.Sprintf("route point #%d is a %s", i+1, p.Kind())))
		}
		coordsNode := p.Get("coordinates")
		if !coordsNode.Exists() {
			continue
		}
		c, ok := coordsNode.Coordinate()
		if !ok {
			return malformed(x.malformedError(fmt.Sprintf("route point #%d has invalid coordinates", i+1)))
		}
		out.Points = append(out.Points, domain.NewPoint(p.Get("title").StringOr(PointOfInterestLabel), c))
	}
	return found(out)
}

// computedRoute reads the route the router built between the route points,
// picking the variant selected in the page's query string.
func (x *Extractor) computedRoute(ctx context.Context, root document.Node) outcome {
	selector := root.At(routeIndexPath)
	if selector.IsArray() {
		return malformed(x.duplicatedSourceError())
	}

	routes := root.At(routesPath)
	if !routes.Exists() || routes.Kind() == document.KindNull {
		return absent()
	}
	if !routes.IsArray() {
		return malformed(x.malformedError(fmt.Sprintf("routes are a %s, not a list", routes.Kind())))
	}
	if routes.Len() == 0 {
		return absent()
	}

	logger := logging.FromContext(ctx)
	index := 0
	switch selector.Kind() {
	case document.KindAbsent, document.KindNull:
	default:
		i, ok := selector.Int()
		if !ok {
			logger.Warn("unreadable selected route index, using first route", "value", selector.Kind().String())
		} else {
			index = i
		}
	}
	// The service has been seen echoing an index one past the last route.
	if index < 0 || index >= routes.Len() {
		logger.Warn("selected route index out of range, using first route",
			"index", index, "routes", routes.Len())
		index = 0
	}

	route := routes.Index(index)
	if !route.IsObject() {
		return malformed(x.malformedError(fmt.Sprintf("route #%d is a %s", index+1, route.Kind())))
	}
	coordsNode := route.Get("coordinates")
	if !coordsNode.Exists() {
		return absent()
	}
	coords, ok := coordsNode.LineString()
	if !ok {
		return malformed(x.malformedError(fmt.Sprintf("route #%d has invalid coordinates", index+1)))
	}
	if len(coords) == 0 {
		return absent()
	}

	meters, _ := route.At("distance.value").Float()
	name := fmt.Sprintf("%s %.1f km", route.Get("type").StringOr(RouteLabel), meters/metersPerKilometer)
	return found(domain.Extraction{Lines: []domain.GeoFeature{domain.NewLine(name, coords)}})
}

// ruler reads a distance measurement. One point measures nothing.
func (x *Extractor) ruler(_ context.Context, root document.Node) outcome {
	points := root.At(rulerPointsPath)
	if !points.Exists() || points.Kind() == document.KindNull {
		return absent()
	}
	coords, ok := points.LineString()
	if !ok {
		return malformed(x.malformedError("ruler points are not coordinate pairs"))
	}
	if len(coords) <= 1 {
		return absent()
	}
	return found(domain.Extraction{Lines: []domain.GeoFeature{domain.NewLine(RulerLabel, coords)}})
}

// diagnose explains an empty result.
func (x *Extractor) diagnose(root document.Node) error {
	if omitted, _ := root.At(longRouteMarker).Bool(); omitted {
		return x.longRouteError()
	}
	if root.Get("config").Has(bookmarksListKey) {
		return x.bookmarkListError()
	}
	return x.noGeodataError()
}
