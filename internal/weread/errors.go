package weread

import (
	"errors"
	"fmt"
)

// Sentinel errors for WeRead API operations.
var (
	ErrUnauthorized = errors.New("weread: session expired or cookie invalid")
	ErrAPI          = errors.New("weread: api error")
	ErrNotFound     = errors.New("weread: not found")
	ErrRateLimited  = errors.New("weread: rate limited by server")
	ErrServer       = errors.New("weread: server error")
	ErrNoCookie     = errors.New("weread: no cookie configured")
)

// Error codes WeRead returns when the session is no longer valid.
const (
	errCodeLoginTimeout = -2010
	errCodeLoginExpired = -2012
)

// CodeError is a non-zero errcode in a WeRead response body.
type CodeError struct {
	Code    int
	Message string
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("errcode %d: %s", e.Code, e.Message)
}

func (e *CodeError) Unwrap() error {
	if e.Code == errCodeLoginTimeout || e.Code == errCodeLoginExpired {
		return ErrUnauthorized
	}
	return ErrAPI
}

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // Operation: "shelf", "bookInfo", "readInfo", ...
	BookID string // If applicable
	Err    error
}

func (e *Error) Error() string {
	if e.BookID != "" {
		return fmt.Sprintf("weread %s [%s]: %v", e.Op, e.BookID, e.Err)
	}
	return fmt.Sprintf("weread %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, bookID string, err error) error {
	return &Error{
		Op:     op,
		BookID: bookID,
		Err:    err,
	}
}
