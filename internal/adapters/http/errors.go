package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, no_geodata, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "unavailable", msg)
}

// domainErrors maps error kinds to a status and code. Order matters only
// for errors carrying more than one kind.
var domainErrors = []struct {
	kind   error
	status int
	code   string
}{
	{domain.ErrNotFound, 404, "not_found"},
	{domain.ErrMalformedDocument, 422, "malformed_document"},
	{domain.ErrDuplicatedSource, 422, "duplicated_source"},
	{domain.ErrUnsupportedContent, 422, "unsupported_content"},
	{domain.ErrNoGeodataFound, 422, "no_geodata"},
	{domain.ErrNoStateView, 422, "no_state_view"},
	{domain.ErrFetchFailed, 502, "fetch_failed"},
}

// errFromDomain renders err. User-facing text is passed through; anything
// else is logged and replaced with a generic message.
func errFromDomain(c *fiber.Ctx, err error) error {
	msg := domain.UserMessage(err)
	for _, e := range domainErrors {
		if errors.Is(err, e.kind) {
			if msg == "" {
				msg = e.kind.Error()
			}
			return newError(c, e.status, e.code, msg)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(c, 504, "timeout", "the conversion took too long")
	}

	logging.FromContext(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return errInternal(c, "internal error")
}
