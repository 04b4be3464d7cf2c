// Package summary renders a short, human-readable description of a track
// document.
package summary

import (
	"fmt"
	"math"
	"strings"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/geospatial"
)

// DefaultLimit is the number of entries listed per collection.
const DefaultLimit = 10

// UnnamedLabel stands in for a missing name.
const UnnamedLabel = "Unnamed"

// Summarize lists waypoints, tracks and routes, up to limit entries each.
// Empty collections are left out.
func Summarize(doc *domain.TrackDocument, limit int) string {
	if doc == nil {
		return ""
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var sections []string

	if n := len(doc.Waypoints); n > 0 {
		sections = append(sections, section("Waypoints", n, limit, func(i int) string {
			w := doc.Waypoints[i]
			if w.Elevation != nil {
				return fmt.Sprintf("%s, %d m", label(w.Name), int(math.Round(*w.Elevation)))
			}
			return label(w.Name)
		}))
	}

	if n := len(doc.Tracks); n > 0 {
		sections = append(sections, section("Tracks", n, limit, func(i int) string {
			t := doc.Tracks[i]
			return fmt.Sprintf("%s, %.1f km", label(t.Name), geospatial.TrackLength2D(t)/1000)
		}))
	}

	if n := len(doc.Routes); n > 0 {
		sections = append(sections, section("Routes", n, limit, func(i int) string {
			r := doc.Routes[i]
			return fmt.Sprintf("%s, %.1f km", label(r.Name), geospatial.Length2D(r.Points)/1000)
		}))
	}

	return strings.Join(sections, "\n")
}

func section(title string, n, limit int, entry func(i int) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n", title, n)
	for i := 0; i < n && i < limit; i++ {
		b.WriteString("- ")
		b.WriteString(entry(i))
		b.WriteByte('\n')
	}
	if n > limit {
		fmt.Fprintf(&b, "... and %d more\n", n-limit)
	}
	return b.String()
}

func label(name string) string {
	if strings.TrimSpace(name) == "" {
		return UnnamedLabel
	}
	return name
}
