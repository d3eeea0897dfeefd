package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a fetch or delete failure.
type Kind string

const (
	// KindResolve means no local filename could be derived for the resource.
	KindResolve Kind = "resolve"

	// KindNetwork means the probe or the transfer failed.
	KindNetwork Kind = "network"

	// KindIntegrity means the transferred byte count did not match the advertised length.
	KindIntegrity Kind = "integrity"

	// KindFilesystem means a file could not be written, finalized or deleted.
	KindFilesystem Kind = "filesystem"
)

// Common errors.
var (
	ErrNoFilename   = errors.New("fetch: no filename in response")
	ErrIntegrity    = errors.New("fetch: size mismatch")
	ErrNotFound     = errors.New("fetch: resource not found")
	ErrForbidden    = errors.New("fetch: access forbidden")
	ErrUnauthorized = errors.New("fetch: unauthorized")
	ErrClientError  = errors.New("fetch: client error")
	ErrServerError  = errors.New("fetch: server error")
	ErrThrottled    = errors.New("fetch: throttled")
)

// Error is returned by every Fetcher operation.
type Error struct {
	Kind       Kind
	ResourceID uint64
	Op         string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s resource %d: %s: %v", e.Op, e.ResourceID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a fetch error, or "" if err is not one.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsRetryable reports whether repeating the whole fetch may succeed.
// Integrity failures and network failures are retryable, except for HTTP
// responses that will not change on a second try.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindIntegrity:
		return true
	case KindNetwork:
		return !errors.Is(err, ErrNotFound) &&
			!errors.Is(err, ErrForbidden) &&
			!errors.Is(err, ErrUnauthorized) &&
			!errors.Is(err, ErrClientError)
	default:
		return false
	}
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return fmt.Errorf("%w: status %d", ErrThrottled, code)
	case code >= 500:
		return fmt.Errorf("%w: status %d", ErrServerError, code)
	default:
		return fmt.Errorf("%w: status %d", ErrClientError, code)
	}
}
