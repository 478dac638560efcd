package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

const postsPath = "/wp-json/wp/v2/posts"

// Restrict error bodies to 4MB
const maxErrorBodySize = 4e+6

// Credentials identifies the operator on a single WordPress site.
type Credentials struct {
	SiteURL     string
	Username    string
	AppPassword string
}

// BasicToken returns the base64 encoded "username:app_password" pair.
func (c Credentials) BasicToken() string {
	return base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.AppPassword))
}

type Options struct {
	HTTPClient    *http.Client
	Timeout       time.Duration
	UserAgent     string
	DefaultStatus Status
}

type OptionFunc func(*Options)

func WithHTTPClient(client *http.Client) OptionFunc {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// WithTimeout sets the per request ceiling. It is ignored when a custom
// http client is given.
func WithTimeout(timeout time.Duration) OptionFunc {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

func WithUserAgent(userAgent string) OptionFunc {
	return func(opts *Options) {
		opts.UserAgent = userAgent
	}
}

// WithDefaultStatus sets the status used when a request does not define one.
func WithDefaultStatus(status Status) OptionFunc {
	return func(opts *Options) {
		opts.DefaultStatus = status
	}
}

// Client publishes posts to a single WordPress site through its REST API.
type Client struct {
	http          *http.Client
	endpoint      string
	authorization string
	userAgent     string
	defaultStatus Status
}

// CreatePost creates a new post. Title and content are sent as is.
//
// A transport failure is returned as a *NetworkError and any response other
// than 201 Created as an *APIError. The request is never retried.
func (c *Client) CreatePost(ctx context.Context, post PostRequest) (*PostResult, error) {
	if post.Status == "" {
		post.Status = c.defaultStatus
	}

	payload, err := EncodePost(post)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		slog.DebugContext(ctx, "creating post", slog.String("endpoint", c.endpoint), slog.String("payload", spew.Sdump(post)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WithStack(&NetworkError{Err: err})
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		body, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBodySize))
		if err != nil {
			return nil, errors.WithStack(&NetworkError{Err: err})
		}

		return nil, errors.WithStack(&APIError{StatusCode: res.StatusCode, Body: body})
	}

	var result PostResult

	decoder := json.NewDecoder(res.Body)
	if err := decoder.Decode(&result); err != nil {
		return nil, errors.Wrap(err, "could not decode created post")
	}

	slog.DebugContext(ctx, "post created", slog.Int("id", result.ID), slog.String("link", result.Link))

	return &result, nil
}

// EncodePost returns the JSON body sent for the given post. HTML content is
// kept verbatim instead of being escaped to \u003c sequences.
func EncodePost(post PostRequest) ([]byte, error) {
	var buff bytes.Buffer

	encoder := json.NewEncoder(&buff)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(post); err != nil {
		return nil, errors.WithStack(err)
	}

	return bytes.TrimSuffix(buff.Bytes(), []byte("\n")), nil
}

// Endpoint returns the posts collection URL of the site.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func NewClient(creds Credentials, funcs ...OptionFunc) *Client {
	opts := &Options{
		Timeout:       30 * time.Second,
		UserAgent:     "wppublisher",
		DefaultStatus: StatusPublish,
	}
	for _, fn := range funcs {
		fn(opts)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		http:          httpClient,
		endpoint:      strings.TrimRight(creds.SiteURL, "/") + postsPath,
		authorization: "Basic " + creds.BasicToken(),
		userAgent:     opts.UserAgent,
		defaultStatus: opts.DefaultStatus,
	}
}
