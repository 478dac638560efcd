package optimizer

import (
	"net"
	"net/http"
	"net/url"

	"github.com/bornholm/genai/llm"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrMissingAPIKey      = errors.New("no api key configured")
	ErrInvalidRequest     = errors.New("invalid optimization request")
	ErrInvalidCredentials = errors.New("invalid api credentials")
	ErrRateLimited        = errors.New("rate limited")
	ErrConnectivity       = errors.New("connectivity failure")
	ErrService            = errors.New("service error")
	ErrEmptyResponse      = errors.New("empty completion response")
)

// Error associates a failure kind with its underlying cause.
// Both can be matched with errors.Is.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func classify(err error) error {
	var validationErr llm.ValidationError

	switch {
	case errors.Is(err, llm.ErrRateLimit):
		return &Error{Kind: ErrRateLimited, Err: err}
	case errors.Is(err, llm.ErrNoMessage):
		return &Error{Kind: ErrEmptyResponse, Err: err}
	case errors.As(err, &validationErr):
		return &Error{Kind: ErrInvalidRequest, Err: err}
	}

	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		status int
	)

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: ErrInvalidCredentials, Err: err}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: ErrRateLimited, Err: err}
	case status == 0 && isConnectivityError(err):
		return &Error{Kind: ErrConnectivity, Err: err}
	default:
		return &Error{Kind: ErrService, Err: err}
	}
}

func isConnectivityError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// Describe returns an operator facing message for the given optimization
// failure.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "no completion service api key is configured"
	case errors.Is(err, ErrInvalidCredentials):
		return "the completion service api key is invalid, check your configuration"
	case errors.Is(err, ErrRateLimited):
		return "the completion service rate limit was reached, try again later"
	case errors.Is(err, ErrConnectivity):
		return "could not reach the completion service, check your network connection"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid optimization parameters: " + err.Error()
	case errors.Is(err, ErrEmptyResponse):
		return "the completion service returned no content"
	default:
		return "completion service error: " + err.Error()
	}
}
