package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bornholm/wppublisher/internal/command"
	"github.com/bornholm/wppublisher/internal/config"
	"github.com/bornholm/wppublisher/internal/logx"
	"github.com/bornholm/wppublisher/internal/prompt"
	"github.com/bornholm/wppublisher/pkg/optimizer"
	wppublish "github.com/bornholm/wppublisher/pkg/publish"
	"github.com/bornholm/wppublisher/pkg/source"
	"github.com/bornholm/wppublisher/pkg/wordpress"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// ErrStdinNeedsYes is returned when the content is read from the standard
// input without --yes: the confirmation would read the same stream.
var ErrStdinNeedsYes = errors.New("reading the content from the standard input requires --yes")

func Publish() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Publish a post to the configured WordPress site, interactively when no title is given",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "title",
				Aliases: []string{"t"},
				Usage:   "The post title, disables the interactive mode",
			},
			&cli.StringFlag{
				Name:      "content",
				Aliases:   []string{"f"},
				Usage:     "The post content location: a file path, an http(s) url or - for the standard input",
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:  "selector",
				Usage: "A CSS selector restricting the loaded content to the first matching element",
			},
			&cli.StringFlag{
				Name:    "status",
				Aliases: []string{"s"},
				Usage:   "The post status (publish, draft, pending, private)",
			},
			&cli.IntSliceFlag{
				Name:  "category",
				Usage: "A category id, can be repeated",
			},
			&cli.IntSliceFlag{
				Name:  "tag",
				Usage: "A tag id, can be repeated",
			},
			&cli.StringFlag{
				Name:  "excerpt",
				Usage: "The post excerpt",
			},
			&cli.BoolFlag{
				Name:  "optimize",
				Usage: "Optimize the content with the completion service before publication",
			},
			&cli.StringFlag{
				Name:  "template",
				Value: optimizer.DefaultTemplate,
				Usage: "The prompt template used by the optimization",
			},
			&cli.Float64Flag{
				Name:  "temperature",
				Usage: "The optimization temperature, within [0, 1]",
			},
			&cli.IntFlag{
				Name:  "max-tokens",
				Usage: "The maximum number of tokens of the optimized content",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "The completion model used by the optimization",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Do not ask for a confirmation, required when the content is read from the standard input",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Run every step but the publication and print the request body",
			},
			&cli.StringFlag{
				Name:      "output",
				Aliases:   []string{"o"},
				Usage:     "Export the post to the given file or directory",
				TakesFile: true,
			},
		},
		Action: func(cliCtx *cli.Context) error {
			conf, err := command.LoadConfig(cliCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			interactive := !cliCtx.IsSet("title")
			dryRun := cliCtx.Bool("dry-run")

			ctx := logx.WithAttrs(cliCtx.Context,
				slog.String("command", "publish"),
				slog.Bool("interactive", interactive),
				slog.Bool("dry_run", dryRun),
			)

			if err := conf.Validate(); err != nil {
				return errors.WithStack(err)
			}

			console := prompt.New(cliCtx.App.Reader, os.Stdout)

			var (
				req   *wppublish.Request
				funcs []wppublish.OptionFunc
			)

			if interactive {
				req, err = interview(console, conf)
				if err != nil {
					return errors.WithStack(err)
				}

				funcs = append(funcs, wppublish.WithReview(console.Review))
			} else {
				req, err = fromFlags(ctx, cliCtx, conf)
				if err != nil {
					return errors.WithStack(err)
				}
			}

			opt := command.NewOptimizer(conf)

			if req.Optimization != nil {
				if err := resolveTemplate(opt, req.Optimization); err != nil {
					return errors.WithStack(err)
				}
			}

			if !cliCtx.Bool("yes") {
				funcs = append(funcs, wppublish.WithConfirm(console.ConfirmPost))
			}

			funcs = append(funcs, wppublish.WithDryRun(dryRun))

			result, err := wppublish.Run(
				ctx, *req,
				command.SpinningPublisher{Publisher: command.NewWordPressClient(conf)},
				command.SpinningOptimizer{Optimizer: opt},
				funcs...,
			)

			if result != nil && result.OptimizationError != nil {
				color.New(color.FgYellow).Fprintf(os.Stderr,
					"Warning: content optimization failed, the original content was kept: %s\n",
					optimizer.Describe(result.OptimizationError),
				)
			}

			if err != nil {
				if errors.Is(err, wppublish.ErrCancelled) {
					color.New(color.FgYellow).Fprintln(os.Stdout, "Publication cancelled.")
					return nil
				}

				return errors.WithStack(err)
			}

			if dryRun {
				if err := printRequest(os.Stdout, result.Request); err != nil {
					return errors.WithStack(err)
				}
			} else {
				printResult(os.Stdout, result.Post)
			}

			if output := cliCtx.String("output"); output != "" {
				if err := export(ctx, output, result); err != nil {
					return errors.WithStack(err)
				}
			}

			return nil
		},
	}
}

func interview(console *prompt.Prompter, conf *config.Config) (*wppublish.Request, error) {
	opt := command.NewOptimizer(conf)

	answers, err := console.PublishRequest(prompt.Defaults{
		Status:      conf.App.DefaultStatus,
		EnableAI:    conf.App.EnableAIByDefault,
		HasAPIKey:   opt.HasAPIKey(),
		Temperature: conf.OpenAI.DefaultTemperature,
		MaxTokens:   conf.OpenAI.DefaultMaxTokens,
		Templates:   opt.TemplateNames(),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if answers.APIKey != "" {
		conf.OpenAI.APIKey = answers.APIKey
	}

	if answers.Request.Optimization != nil {
		answers.Request.Optimization.Template = answers.TemplateName
	}

	return &answers.Request, nil
}

func fromFlags(ctx context.Context, cliCtx *cli.Context, conf *config.Config) (*wppublish.Request, error) {
	req := &wppublish.Request{
		Post: wordpress.PostRequest{
			Title:      cliCtx.String("title"),
			Excerpt:    cliCtx.String("excerpt"),
			Categories: cliCtx.IntSlice("category"),
			Tags:       cliCtx.IntSlice("tag"),
		},
	}

	status, err := wordpress.ParseStatus(cliCtx.String("status"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if status == "" {
		status = conf.App.DefaultStatus
	}

	req.Post.Status = status

	if location := cliCtx.String("content"); location != "" {
		if location == source.Stdin && !cliCtx.Bool("yes") {
			return nil, errors.WithStack(ErrStdinNeedsYes)
		}

		content, err := source.Load(ctx, location,
			source.WithSelector(cliCtx.String("selector")),
			source.WithStdin(cliCtx.App.Reader),
		)
		if err != nil {
			return nil, errors.Wrap(err, "could not load post content")
		}

		req.Post.Content = content
	}

	optimize := conf.App.EnableAIByDefault
	if cliCtx.IsSet("optimize") {
		optimize = cliCtx.Bool("optimize")
	}

	if optimize {
		optReq := &optimizer.Request{
			Template: cliCtx.String("template"),
			Model:    cliCtx.String("model"),
		}

		if cliCtx.IsSet("temperature") {
			temperature := cliCtx.Float64("temperature")
			optReq.Temperature = &temperature
		}

		if cliCtx.IsSet("max-tokens") {
			optReq.MaxTokens = cliCtx.Int("max-tokens")
		}

		req.Optimization = optReq
	}

	return req, nil
}

// resolveTemplate replaces the template name of the request by its content.
func resolveTemplate(opt *optimizer.Optimizer, req *optimizer.Request) error {
	name := req.Template
	if name == "" {
		name = optimizer.DefaultTemplate
	}

	tmpl, exists := opt.Template(name)
	if !exists {
		return errors.Errorf("unknown prompt template '%s', available templates: %s", name, strings.Join(opt.TemplateNames(), ", "))
	}

	req.Template = tmpl

	return nil
}

func printResult(w io.Writer, post *wordpress.PostResult) {
	bold := color.New(color.Bold)

	color.New(color.FgHiGreen, color.Bold).Fprintln(w, "Post published!")
	bold.Fprint(w, "  ID:    ")
	fmt.Fprintf(w, "%d\n", post.ID)
	bold.Fprint(w, "  Title: ")
	fmt.Fprintf(w, "%s\n", post.Title.Rendered)
	bold.Fprint(w, "  Link:  ")
	fmt.Fprintf(w, "%s\n", post.Link)
	bold.Fprint(w, "  Edit:  ")
	fmt.Fprintf(w, "%s\n", post.EditLink())
}

func printRequest(w io.Writer, post wordpress.PostRequest) error {
	body, err := wordpress.EncodePost(post)
	if err != nil {
		return errors.WithStack(err)
	}

	color.New(color.FgYellow).Fprintln(w, "Dry run, the post was not published. Request body:")

	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func export(ctx context.Context, output string, result *wppublish.Result) error {
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		output = filepath.Join(output, wppublish.ExportFilename(result.Request.Title))
	}

	var buff bytes.Buffer
	if err := wppublish.Export(&buff, result.Request, result.Post); err != nil {
		return errors.WithStack(err)
	}

	if err := os.WriteFile(output, buff.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed to write post")
	}

	slog.InfoContext(ctx, "post exported", slog.String("output", output))

	return nil
}
