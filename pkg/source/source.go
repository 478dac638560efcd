package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// Stdin is the location used to read content from the standard input.
const Stdin = "-"

var ErrSelectorNotFound = errors.New("selector did not match any element")

type Options struct {
	Fetcher  Fetcher
	Stdin    io.Reader
	Selector string
}

type OptionFunc func(*Options)

func WithFetcher(fetcher Fetcher) OptionFunc {
	return func(opts *Options) {
		opts.Fetcher = fetcher
	}
}

func WithStdin(r io.Reader) OptionFunc {
	return func(opts *Options) {
		opts.Stdin = r
	}
}

// WithSelector restricts the loaded content to the inner HTML of the first
// element matching the given CSS selector.
func WithSelector(selector string) OptionFunc {
	return func(opts *Options) {
		opts.Selector = selector
	}
}

// Load reads article content from a file path, the standard input ("-")
// or an http(s) URL.
func Load(ctx context.Context, location string, funcs ...OptionFunc) (string, error) {
	opts := &Options{
		Fetcher: DefaultFetcher(),
		Stdin:   os.Stdin,
	}
	for _, fn := range funcs {
		fn(opts)
	}

	reader, err := open(ctx, location, opts)
	if err != nil {
		return "", errors.WithStack(err)
	}

	defer reader.Close()

	if opts.Selector != "" {
		return selectFragment(reader, opts.Selector)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", errors.Wrapf(err, "could not read content from '%s'", location)
	}

	return string(data), nil
}

func open(ctx context.Context, location string, opts *Options) (io.ReadCloser, error) {
	switch {
	case location == Stdin:
		return io.NopCloser(opts.Stdin), nil

	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		return opts.Fetcher.Get(ctx, location)

	default:
		file, err := os.Open(location)
		if err != nil {
			return nil, errors.Wrapf(err, "could not open '%s'", location)
		}

		return file, nil
	}
}

func selectFragment(r io.Reader, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", errors.WithStack(err)
	}

	selection := doc.Find(selector).First()
	if selection.Length() == 0 {
		return "", errors.Wrapf(ErrSelectorNotFound, "'%s'", selector)
	}

	html, err := selection.Html()
	if err != nil {
		return "", errors.WithStack(err)
	}

	return strings.TrimSpace(html), nil
}
