package domain

import "errors"

// Error kinds surfaced to end users. Match them with errors.Is.
var (
	ErrNoGeodataFound     = errors.New("no geodata found")
	ErrUnsupportedContent = errors.New("unsupported content type")
	ErrMalformedDocument  = errors.New("malformed document")
	ErrDuplicatedSource   = errors.New("duplicated source")
	ErrFetchFailed        = errors.New("page fetch failed")
	ErrNoStateView        = errors.New("page has no map state")
	ErrNotFound           = errors.New("not found")
)

// UserError carries text meant to be shown to the user as is.
type UserError struct {
	Kind    error
	Message string
	Err     error
}

// NewUserError wraps kind with a user-facing message.
func NewUserError(kind error, message string) *UserError {
	return &UserError{Kind: kind, Message: message}
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *UserError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// UserMessage returns the text for end users, or "" for internal errors.
func UserMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return ""
}
