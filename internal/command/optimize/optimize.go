package optimize

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bornholm/wppublisher/internal/command"
	"github.com/bornholm/wppublisher/internal/logx"
	"github.com/bornholm/wppublisher/pkg/optimizer"
	"github.com/bornholm/wppublisher/pkg/source"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Optimize() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Optimize content with the completion service and print the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "content",
				Aliases:   []string{"f"},
				Value:     source.Stdin,
				Usage:     "The content location: a file path, an http(s) url or - for the standard input",
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:  "selector",
				Usage: "A CSS selector restricting the loaded content to the first matching element",
			},
			&cli.StringFlag{
				Name:  "template",
				Value: optimizer.DefaultTemplate,
				Usage: "The prompt template",
			},
			&cli.Float64Flag{
				Name:  "temperature",
				Usage: "The temperature, within [0, 1]",
			},
			&cli.IntFlag{
				Name:  "max-tokens",
				Usage: "The maximum number of tokens of the optimized content",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "The completion model",
			},
		},
		Subcommands: []*cli.Command{
			Models(),
			Templates(),
		},
		Action: func(cliCtx *cli.Context) error {
			conf, err := command.LoadConfig(cliCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			ctx := logx.WithAttrs(cliCtx.Context, slog.String("command", "optimize"))

			opt := command.NewOptimizer(conf)

			templateName := cliCtx.String("template")
			tmpl, exists := opt.Template(templateName)
			if !exists {
				return errors.Errorf("unknown prompt template '%s', available templates: %s", templateName, strings.Join(opt.TemplateNames(), ", "))
			}

			content, err := source.Load(ctx, cliCtx.String("content"), source.WithSelector(cliCtx.String("selector")))
			if err != nil {
				return errors.Wrap(err, "could not load content")
			}

			req := optimizer.Request{
				Text:     content,
				Template: tmpl,
				Model:    cliCtx.String("model"),
			}

			if cliCtx.IsSet("temperature") {
				temperature := cliCtx.Float64("temperature")
				req.Temperature = &temperature
			}

			if cliCtx.IsSet("max-tokens") {
				req.MaxTokens = cliCtx.Int("max-tokens")
			}

			var optimized string

			err = command.Spin("Optimizing content...", func() error {
				var err error
				optimized, err = opt.Optimize(ctx, req)
				return err
			})
			if err != nil {
				return errors.WithStack(err)
			}

			if optimized == "" {
				return errors.WithStack(optimizer.ErrEmptyResponse)
			}

			fmt.Fprintln(os.Stdout, optimized)

			return nil
		},
	}
}

func Models() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List the models available with the configured api key",
		Action: func(cliCtx *cli.Context) error {
			conf, err := command.LoadConfig(cliCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			ctx := logx.WithAttrs(cliCtx.Context, slog.String("command", "optimize models"))

			opt := command.NewOptimizer(conf)

			var models []string

			err = command.Spin("Listing models...", func() error {
				var err error
				models, err = opt.Models(ctx)
				return err
			})
			if err != nil {
				return errors.WithStack(err)
			}

			for _, model := range models {
				fmt.Fprintln(os.Stdout, model)
			}

			return nil
		},
	}
}

func Templates() *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "List the available prompt templates",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print the templates content",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			conf, err := command.LoadConfig(cliCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			opt := command.NewOptimizer(conf)
			verbose := cliCtx.Bool("verbose")

			for i, name := range opt.TemplateNames() {
				fmt.Fprintf(os.Stdout, "%d. %s\n", i+1, name)

				if verbose {
					tmpl, _ := opt.Template(name)
					fmt.Fprintf(os.Stdout, "   %s\n\n", strings.ReplaceAll(tmpl, "\n", "\n   "))
				}
			}

			return nil
		},
	}
}
