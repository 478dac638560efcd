package command

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/bornholm/wppublisher/internal/logx"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Main(name string, version string, usage string, commands ...*cli.Command) {
	app := &cli.App{
		Name:     name,
		Usage:    usage,
		Commands: commands,
		Version:  version,
		Before: func(ctx *cli.Context) error {
			// Switch to new working directory if defined
			if workdir := ctx.String("workdir"); workdir != "" {
				if err := os.Chdir(workdir); err != nil {
					return errors.Wrap(err, "could not change working directory")
				}
			}

			level := parseLogLevel(ctx.String("log-level"))
			if ctx.Bool("debug") {
				level = slog.LevelDebug
			}

			logger := slog.New(logx.ContextHandler{
				Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: level,
				}),
			})
			slog.SetDefault(logger)

			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "config",
				Aliases:   []string{"c"},
				Value:     "",
				EnvVars:   []string{"WPPUBLISHER_CONFIG"},
				Usage:     "The configuration file, ./wppublisher.yml is used when it exists",
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:    "workdir",
				Value:   "",
				EnvVars: []string{"WPPUBLISHER_WORKDIR"},
				Usage:   "The working directory",
			},
			&cli.BoolFlag{
				Name:    "debug",
				EnvVars: []string{"WPPUBLISHER_DEBUG"},
				Usage:   "Enable debug mode",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"WPPUBLISHER_LOG_LEVEL"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}

		if ctx.Bool("debug") {
			slog.ErrorContext(ctx.Context, fmt.Sprintf("%+v", err))
		} else {
			slog.DebugContext(ctx.Context, err.Error())
		}

		color.New(color.FgHiRed, color.Bold).Fprintf(os.Stderr, "Error: %s\n", Describe(err))
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
