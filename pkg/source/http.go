package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Keep at most 4MB of a failed response
const maxErrorBodySize = 4e+6

// Fetcher retrieves remote content.
type Fetcher interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

var defaultFetcher Fetcher = NewHTTPFetcher(&http.Client{Timeout: 30 * time.Second})

func DefaultFetcher() Fetcher {
	return defaultFetcher
}

// StatusError is returned when a remote document is answered with a non
// 2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("could not fetch '%s': http status %d (%s)", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

type HTTPFetcher struct {
	client *http.Client
}

// Get implements Fetcher.
func (f *HTTPFetcher) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid content url '%s'", url)
	}

	req.Header.Set("Accept", "text/html, application/xhtml+xml;q=0.9, */*;q=0.5")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch '%s'", url)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBodySize))
		if err != nil {
			return nil, errors.Wrapf(err, "could not read the response of '%s'", url)
		}

		return nil, errors.WithStack(&StatusError{URL: url, StatusCode: res.StatusCode, Body: body})
	}

	return res.Body, nil
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPFetcher{
		client: client,
	}
}

var _ Fetcher = &HTTPFetcher{}
