package config

import (
	"os"

	"github.com/bornholm/wppublisher/internal/command"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.yaml.in/yaml/v3"
)

func Config() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the effective configuration",
		Subcommands: []*cli.Command{
			Show(),
			Check(),
		},
	}
}

func Show() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the effective configuration, secrets masked",
		Action: func(cliCtx *cli.Context) error {
			conf, err := command.LoadConfig(cliCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			encoder := yaml.NewEncoder(os.Stdout)
			encoder.SetIndent(2)

			if err := encoder.Encode(conf.Masked()); err != nil {
				return errors.Wrap(err, "failed to write configuration")
			}

			if err := encoder.Close(); err != nil {
				return errors.WithStack(err)
			}

			return nil
		},
	}
}

func Check() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Validate the effective configuration",
		Action: func(cliCtx *cli.Context) error {
			conf, err := command.LoadConfig(cliCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			if err := conf.Validate(); err != nil {
				var merr *multierror.Error
				if errors.As(err, &merr) {
					for _, e := range merr.Errors {
						color.New(color.FgHiRed).Fprintf(os.Stdout, "  - %s\n", e)
					}
				}

				return errors.New("configuration is invalid")
			}

			color.New(color.FgHiGreen, color.Bold).Fprintln(os.Stdout, "Configuration is valid.")

			if !command.NewOptimizer(conf).HasAPIKey() {
				color.New(color.FgYellow).Fprintln(os.Stdout, "No completion service api key configured, content optimization is disabled.")
			}

			return nil
		},
	}
}
