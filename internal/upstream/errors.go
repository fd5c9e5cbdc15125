package upstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for search endpoint operations.
var (
	ErrNotFound    = errors.New("upstream: not found")
	ErrRateLimited = errors.New("upstream: rate limited by server")
	ErrBadRequest  = errors.New("upstream: bad request")
	ErrServer      = errors.New("upstream: server error")
	ErrQuery       = errors.New("upstream: query rejected")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op        string // Operation: "searchBooks", "fetchTaxonomy"
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("upstream %s [%s]: %v", e.Op, e.RequestID, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, requestID string, err error) error {
	return &Error{Op: op, RequestID: requestID, Err: err}
}
