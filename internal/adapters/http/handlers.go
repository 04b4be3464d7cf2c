package http

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
	"github.com/samirrijal/ymaps2gpx/internal/core/usecases"
)

const (
	gpxContentType = "application/gpx+xml"
	gpxFilename    = "track.gpx"
	maxMergeURLs   = 20
)

// ConversionResponse is the JSON rendering of a conversion.
type ConversionResponse struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Shape     string    `json:"shape"`
	Elevation bool      `json:"elevation"`
	Summary   string    `json:"summary"`
	Lines     int       `json:"lines"`
	Points    int       `json:"points"`
	GPX       string    `json:"gpx,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(c *domain.Conversion, withGPX bool) ConversionResponse {
	r := ConversionResponse{
		ID:        c.ID,
		Source:    c.Source,
		Shape:     c.Shape,
		Elevation: c.Elevation,
		Summary:   c.Summary,
		Lines:     c.Lines,
		Points:    c.Points,
		CreatedAt: c.CreatedAt,
	}
	if withGPX {
		r.GPX = string(c.GPX)
	}
	return r
}

// convertOptions reads shape, elevation and format from the query string.
func convertOptions(c *fiber.Ctx, deps *Dependencies) (usecases.ConvertOptions, string, error) {
	shape, err := synth.ParseShape(c.Query("shape"))
	if err != nil {
		return usecases.ConvertOptions{}, "", err
	}
	if c.Query("shape") == "" && deps.DefaultShape != "" {
		shape = deps.DefaultShape
	}

	format := strings.ToLower(c.Query("format", "gpx"))
	if format != "gpx" && format != "json" {
		return usecases.ConvertOptions{}, "", errors.New("format must be gpx or json")
	}

	return usecases.ConvertOptions{Shape: shape, Elevation: c.QueryBool("elevation", false)}, format, nil
}

// sendGPX writes the conversion as a downloadable file.
func sendGPX(c *fiber.Ctx, conv *domain.Conversion) error {
	c.Set(fiber.HeaderContentType, gpxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+gpxFilename+`"`)
	c.Set("X-Conversion-ID", conv.ID)
	c.Set("X-Track-Summary", url.QueryEscape(conv.Summary))
	return c.Send(conv.GPX)
}

func respondConversion(c *fiber.Ctx, conv *domain.Conversion, format string) error {
	c.Set("Cache-Control", "no-store")
	if format == "json" {
		c.Set("X-Conversion-ID", conv.ID)
		return c.JSON(toResponse(conv, true))
	}
	return sendGPX(c, conv)
}

// ConvertHandler downloads the map at ?url= and returns it as GPX.
func ConvertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mapURL := strings.TrimSpace(c.Query("url"))
		if mapURL == "" {
			return errBadRequest(c, "url query parameter is required")
		}
		opts, format, err := convertOptions(c, deps)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		conv, err := deps.Conversions.ConvertURL(c.UserContext(), mapURL, opts)
		if err != nil {
			return errFromDomain(c, err)
		}
		return respondConversion(c, conv, format)
	}
}

// ConvertDocumentHandler converts a state document posted as the body.
func ConvertDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		if len(body) == 0 {
			return errBadRequest(c, "request body must contain the map state JSON")
		}
		opts, format, err := convertOptions(c, deps)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		// The body buffer is reused once the handler returns
		data := append([]byte(nil), body...)
		conv, err := deps.Conversions.ConvertDocument(c.UserContext(), data, opts)
		if err != nil {
			return errFromDomain(c, err)
		}
		return respondConversion(c, conv, format)
	}
}

// ListConversionsHandler returns recorded conversions, newest first.
func ListConversionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		conversions, total, err := deps.Conversions.ListRecent(c.UserContext(), offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}

		out := make([]ConversionResponse, len(conversions))
		for i := range conversions {
			out[i] = toResponse(&conversions[i], false)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: out, Pagination: pg})
	}
}

// GetConversionHandler returns one conversion's metadata.
func GetConversionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := deps.Conversions.Get(c.UserContext(), c.Params("id"))
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "conversion not found")
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(toResponse(conv, false))
	}
}

// ConversionGPXHandler re-downloads a recorded conversion's file.
func ConversionGPXHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := deps.Conversions.Get(c.UserContext(), c.Params("id"))
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "conversion not found")
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		return sendGPX(c, conv)
	}
}

// MergeHandler queues a job combining several map links into one file. The
// result is announced on the conversion event stream.
func MergeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Merges == nil {
			return errUnavailable(c, "merge jobs are not enabled")
		}

		var req domain.MergeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.URLs) == 0 || len(req.URLs) > maxMergeURLs {
			return errBadRequest(c, "urls must list between 1 and 20 map links")
		}
		if _, err := synth.ParseShape(req.Shape); err != nil {
			return errBadRequest(c, err.Error())
		}

		if err := deps.Merges.PublishMergeRequest(c.UserContext(), req); err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "queued",
			"urls":   len(req.URLs),
		})
	}
}
