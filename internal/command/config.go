package command

import (
	"log/slog"

	"github.com/bornholm/wppublisher/internal/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// LoadConfig loads the configuration selected by the global --config flag.
// It is not validated.
func LoadConfig(ctx *cli.Context) (*config.Config, error) {
	funcs := make([]config.LoadOptionFunc, 0, 1)

	if path := ctx.String("config"); path != "" {
		funcs = append(funcs, config.WithFile(path))
	}

	conf, err := config.Load(funcs...)
	if err != nil {
		return nil, errors.Wrap(err, "could not load configuration")
	}

	slog.DebugContext(ctx.Context, "configuration loaded",
		slog.String("site_url", conf.WordPress.SiteURL),
		slog.String("default_status", string(conf.App.DefaultStatus)),
		slog.Bool("ai_by_default", conf.App.EnableAIByDefault),
	)

	return conf, nil
}
