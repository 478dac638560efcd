package publish

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bornholm/wppublisher/pkg/optimizer"
	"github.com/bornholm/wppublisher/pkg/wordpress"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrCancelled  = errors.New("publication cancelled")
)

type Publisher interface {
	CreatePost(ctx context.Context, post wordpress.PostRequest) (*wordpress.PostResult, error)
}

type Optimizer interface {
	Optimize(ctx context.Context, req optimizer.Request) (string, error)
}

// Request is a fully populated publication request.
type Request struct {
	Post wordpress.PostRequest

	// Optimization enables the rewriting of the post content before
	// publication. Its Text field is ignored, the post content is used.
	Optimization *optimizer.Request
}

type Result struct {
	// Post is nil when nothing was published (dry run).
	Post *wordpress.PostResult

	// Request is the post request as sent, or as it would have been sent.
	Request wordpress.PostRequest

	Optimized         bool
	OptimizationError error
}

// ReviewFunc decides whether the optimized content replaces the original one.
type ReviewFunc func(ctx context.Context, original, optimized string) (bool, error)

// ConfirmFunc is the last chance to cancel the publication.
type ConfirmFunc func(ctx context.Context, post wordpress.PostRequest) (bool, error)

type Options struct {
	Review  ReviewFunc
	Confirm ConfirmFunc
	DryRun  bool
}

type OptionFunc func(*Options)

func WithReview(fn ReviewFunc) OptionFunc {
	return func(opts *Options) {
		opts.Review = fn
	}
}

func WithConfirm(fn ConfirmFunc) OptionFunc {
	return func(opts *Options) {
		opts.Confirm = fn
	}
}

// WithDryRun runs every step but the publication itself.
func WithDryRun(dryRun bool) OptionFunc {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// Validate checks that the required post fields are not blank.
func Validate(req Request) error {
	var err error

	if strings.TrimSpace(req.Post.Title) == "" {
		err = multierror.Append(err, errors.Wrap(ErrValidation, "title must not be empty"))
	}

	if strings.TrimSpace(req.Post.Content) == "" {
		err = multierror.Append(err, errors.Wrap(ErrValidation, "content must not be empty"))
	}

	return err
}

// Run validates, optionally optimizes then publishes the requested post.
//
// An optimization failure does not stop the flow: the original content is
// published and the failure is reported in Result.OptimizationError.
// The optimizer may be nil when no optimization is requested.
func Run(ctx context.Context, req Request, publisher Publisher, opt Optimizer, funcs ...OptionFunc) (*Result, error) {
	opts := &Options{}
	for _, fn := range funcs {
		fn(opts)
	}

	if err := Validate(req); err != nil {
		return nil, err
	}

	post := req.Post
	result := &Result{}

	if req.Optimization != nil && opt != nil {
		optimized, err := Optimize(ctx, opt, post.Content, *req.Optimization)
		switch {
		case err != nil:
			result.OptimizationError = err

		case optimized == post.Content:
			result.Optimized = true

		default:
			accept := true
			if opts.Review != nil {
				accept, err = opts.Review(ctx, post.Content, optimized)
				if err != nil {
					return nil, errors.WithStack(err)
				}
			}

			if accept {
				post.Content = optimized
				result.Optimized = true
			} else {
				slog.InfoContext(ctx, "optimized content rejected, keeping original content")
			}
		}
	}

	result.Request = post

	if opts.Confirm != nil {
		confirmed, err := opts.Confirm(ctx, post)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if !confirmed {
			return result, errors.WithStack(ErrCancelled)
		}
	}

	if opts.DryRun {
		slog.InfoContext(ctx, "dry run, post not published", slog.String("title", post.Title))
		return result, nil
	}

	created, err := publisher.CreatePost(ctx, post)
	if err != nil {
		return result, errors.WithStack(err)
	}

	result.Post = created

	return result, nil
}

// Optimize rewrites content with the given optimizer. On failure the
// original content is returned unchanged alongside the error.
func Optimize(ctx context.Context, opt Optimizer, content string, req optimizer.Request) (string, error) {
	req.Text = content

	optimized, err := opt.Optimize(ctx, req)
	if err != nil {
		slog.WarnContext(ctx, "content optimization failed, keeping original content", slog.String("reason", optimizer.Describe(err)))
		return content, errors.WithStack(err)
	}

	if strings.TrimSpace(optimized) == "" {
		slog.WarnContext(ctx, "content optimization returned empty content, keeping original content")
		return content, errors.WithStack(optimizer.ErrEmptyResponse)
	}

	return optimized, nil
}
