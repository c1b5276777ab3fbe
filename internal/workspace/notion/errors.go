package notion

import (
	"errors"
	"fmt"

	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
)

// Sentinel errors for Notion API operations.
var (
	ErrBadRequest   = errors.New("notion: bad request")
	ErrUnauthorized = errors.New("notion: unauthorized")
	ErrNotFound     = errors.New("notion: not found")
	ErrConflict     = errors.New("notion: conflict")
	ErrRateLimited  = errors.New("notion: rate limited by server")
	ErrServer       = errors.New("notion: server error")
)

// APIError is an error response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string

	sentinel error
	domain   error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap exposes both the package sentinel and the domain error, so callers
// can match either.
func (e *APIError) Unwrap() []error {
	return []error{e.sentinel, e.domain}
}

func newAPIError(status int, code, message string) *APIError {
	e := &APIError{Status: status, Code: code, Message: message}
	switch {
	case status == 400:
		e.sentinel, e.domain = ErrBadRequest, domainerrors.Validation(message)
	case status == 401 || status == 403:
		e.sentinel, e.domain = ErrUnauthorized, domainerrors.Config("notion rejected the integration token")
	case status == 404:
		e.sentinel, e.domain = ErrNotFound, domainerrors.NotFound(message)
	case status == 409:
		e.sentinel, e.domain = ErrConflict, domainerrors.ErrDestination
	case status == 429:
		e.sentinel, e.domain = ErrRateLimited, domainerrors.ErrRateLimited
	default:
		e.sentinel, e.domain = ErrServer, domainerrors.ErrDestination
	}
	return e
}

// Error wraps an underlying error with operation context.
type Error struct {
	Op string // Operation: "query", "createPage", "updatePage", ...
	ID string // Database, page, or block id, if applicable
	Err error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("notion %s [%s]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("notion %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, id string, err error) error {
	return &Error{Op: op, ID: id, Err: err}
}
