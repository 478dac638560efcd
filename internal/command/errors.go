package command

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bornholm/wppublisher/pkg/optimizer"
	"github.com/bornholm/wppublisher/pkg/wordpress"
	"github.com/pkg/errors"
)

// Restrict reported response bodies to 500 characters
const maxReportedBodySize = 500

// Describe returns an operator facing message for the given failure.
func Describe(err error) string {
	var apiErr *wordpress.APIError
	var optErr *optimizer.Error

	switch {
	case wordpress.IsAuthError(err):
		errors.As(err, &apiErr)
		return fmt.Sprintf(
			"authentication failed (http %d), check the username and the application password: %s",
			apiErr.StatusCode, excerpt(apiErr.Body),
		)

	case errors.As(err, &apiErr):
		return fmt.Sprintf(
			"wordpress rejected the post (http %d %s): %s",
			apiErr.StatusCode, http.StatusText(apiErr.StatusCode), excerpt(apiErr.Body),
		)

	case wordpress.IsNetworkError(err):
		var netErr *wordpress.NetworkError
		errors.As(err, &netErr)
		return fmt.Sprintf("could not reach the wordpress site: %s", netErr.Err)

	case errors.As(err, &optErr), errors.Is(err, optimizer.ErrMissingAPIKey), errors.Is(err, optimizer.ErrInvalidRequest), errors.Is(err, optimizer.ErrEmptyResponse):
		return optimizer.Describe(err)

	default:
		return err.Error()
	}
}

func excerpt(body []byte) string {
	text := strings.TrimSpace(string(body))

	runes := []rune(text)
	if len(runes) > maxReportedBodySize {
		return string(runes[:maxReportedBodySize]) + "..."
	}

	return text
}
