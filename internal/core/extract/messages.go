package extract

import (
	"fmt"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

// DefaultHelpURL is linked from every user-facing extraction error.
const DefaultHelpURL = "https://github.com/samirrijal/ymaps2gpx#faq"

func (x *Extractor) malformedError(detail string) error {
	return domain.NewUserError(domain.ErrMalformedDocument, fmt.Sprintf(
		"The map data has an unexpected structure (%s). Please report this link so it can be supported. Help: %s",
		detail, x.helpURL))
}

func (x *Extractor) duplicatedSourceError() error {
	return domain.NewUserError(domain.ErrDuplicatedSource, fmt.Sprintf(
		"The link looks like two map addresses pasted together. Copy the link from the map once more and paste it a single time. Help: %s",
		x.helpURL))
}

func (x *Extractor) longRouteError() error {
	return domain.NewUserError(domain.ErrUnsupportedContent, fmt.Sprintf(
		"This route is too long: the map page does not include its coordinates. Split it into shorter routes and convert them one by one. Help: %s",
		x.helpURL))
}

func (x *Extractor) bookmarkListError() error {
	return domain.NewUserError(domain.ErrUnsupportedContent, fmt.Sprintf(
		"Public bookmark lists are not supported. Open a drawn map, a route or a ruler measurement instead. Help: %s",
		x.helpURL))
}

func (x *Extractor) noGeodataError() error {
	return domain.NewUserError(domain.ErrNoGeodataFound, fmt.Sprintf(
		"No route, line or placemark was found on this map. Check that the link opens a map with a built route, drawn objects or a ruler measurement. Help: %s",
		x.helpURL))
}
