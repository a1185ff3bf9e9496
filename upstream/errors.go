package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTimeout is returned when a fetch exceeds its per-call timeout.
	ErrTimeout = errors.New("upstream: timeout")
	// ErrParse is returned when the response body is not the expected JSON.
	ErrParse = errors.New("upstream: malformed response")
	// ErrNotFound matches an *HTTPError with status 404.
	ErrNotFound = errors.New("upstream: not found")
)

const maxErrorBody = 4 << 10

// HTTPError is returned for non-2xx responses. Body holds at most the
// first few KB of the response so callers can salvage fallback payloads.
type HTTPError struct {
	Status int
	URL    string
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream: %s returned %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Kind names the failure class of err for logs and metrics.
func Kind(err error) string {
	var he *HTTPError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.As(err, &he):
		return "http_error"
	case errors.Is(err, ErrParse):
		return "parse_error"
	default:
		return "transport_error"
	}
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status >= 500
	}
	return errors.Is(err, ErrTimeout)
}
