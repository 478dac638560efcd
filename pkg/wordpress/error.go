package wordpress

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// APIError is returned when the remote API answers with an unexpected
// status code.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected response http status %d (%s): %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// NetworkError is returned when the request could not reach the remote API
// or when its response could not be read.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("could not reach wordpress api: %s", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsAuthError reports whether the remote API rejected the credentials.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
