package integrations

import (
	"errors"
	"net/http"
	"time"

	lgerrors "github.com/matzehuels/layoutgen/pkg/errors"
)

// DefaultTimeout bounds a single provider request. Model calls that return
// large tool payloads can take minutes.
const DefaultTimeout = 5 * time.Minute

// NewHTTPClient creates an HTTP client with the given timeout, or
// [DefaultTimeout] when timeout is zero.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// StatusCode returns the HTTP status of a provider failure, or 0 if err did
// not come from a non-2xx response.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	if lgerrors.HasCode(err, lgerrors.ErrCodeRateLimited) {
		return http.StatusTooManyRequests
	}
	return 0
}
