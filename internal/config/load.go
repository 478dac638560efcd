package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bornholm/wppublisher/pkg/wordpress"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

const (
	DefaultFile       = "wppublisher.yml"
	DefaultDotEnvFile = ".env"
	EnvPrefix         = "WPPUBLISHER_"
)

type LoadOptions struct {
	File         string
	FileRequired bool
	DotEnvFile   string
	LookupEnv    func(key string) (string, bool)
}

type LoadOptionFunc func(*LoadOptions)

// WithFile loads the given YAML file, which must exist.
func WithFile(path string) LoadOptionFunc {
	return func(opts *LoadOptions) {
		opts.File = path
		opts.FileRequired = true
	}
}

func WithDotEnvFile(path string) LoadOptionFunc {
	return func(opts *LoadOptions) {
		opts.DotEnvFile = path
	}
}

func WithLookupEnv(fn func(key string) (string, bool)) LoadOptionFunc {
	return func(opts *LoadOptions) {
		opts.LookupEnv = fn
	}
}

// Load builds the configuration from, by increasing precedence, the defaults,
// the YAML configuration file, the dotenv file and the environment.
// Variables defined in the environment win over the dotenv file ones.
func Load(funcs ...LoadOptionFunc) (*Config, error) {
	opts := &LoadOptions{
		File:       DefaultFile,
		DotEnvFile: DefaultDotEnvFile,
		LookupEnv:  os.LookupEnv,
	}
	for _, fn := range funcs {
		fn(opts)
	}

	conf := Default()

	if err := loadFile(conf, opts.File, opts.FileRequired); err != nil {
		return nil, errors.WithStack(err)
	}

	dotenv := map[string]string{}
	if opts.DotEnvFile != "" {
		values, err := godotenv.Read(opts.DotEnvFile)
		switch {
		case err == nil:
			dotenv = values
			slog.Debug("dotenv file loaded", slog.String("file", opts.DotEnvFile))
		case !errors.Is(err, os.ErrNotExist):
			return nil, errors.Wrapf(err, "could not read dotenv file '%s'", opts.DotEnvFile)
		}
	}

	lookup := func(key string) (string, bool) {
		if value, exists := opts.LookupEnv(key); exists {
			return value, true
		}

		value, exists := dotenv[key]
		return value, exists
	}

	if err := applyEnv(conf, lookup); err != nil {
		return nil, errors.WithStack(err)
	}

	return conf, nil
}

func loadFile(conf *Config, path string, required bool) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return errors.Wrapf(err, "could not read configuration file '%s'", path)
	}

	if err := yaml.Unmarshal(data, conf); err != nil {
		return errors.Wrapf(err, "could not parse configuration file '%s'", path)
	}

	slog.Debug("configuration file loaded", slog.String("file", path))

	return nil
}

func applyEnv(conf *Config, lookup func(key string) (string, bool)) error {
	str := func(target *string, keys ...string) {
		for _, key := range keys {
			if value, exists := lookup(key); exists {
				*target = value
				return
			}
		}
	}

	str(&conf.WordPress.SiteURL, EnvPrefix+"SITE_URL")
	str(&conf.WordPress.Username, EnvPrefix+"USERNAME")
	str(&conf.WordPress.AppPassword, EnvPrefix+"APP_PASSWORD")
	str(&conf.OpenAI.APIKey, EnvPrefix+"OPENAI_API_KEY", "OPENAI_API_KEY")
	str(&conf.OpenAI.Provider, EnvPrefix+"OPENAI_PROVIDER")
	str(&conf.OpenAI.BaseURL, EnvPrefix+"OPENAI_BASE_URL")
	str(&conf.OpenAI.DefaultModel, EnvPrefix+"OPENAI_MODEL")
	str(&conf.OpenAI.SystemPrompt, EnvPrefix+"OPENAI_SYSTEM_PROMPT")

	if value, exists := lookup(EnvPrefix + "OPENAI_TEMPERATURE"); exists {
		temperature, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return errors.Wrapf(err, "could not parse %sOPENAI_TEMPERATURE", EnvPrefix)
		}
		conf.OpenAI.DefaultTemperature = temperature
	}

	if value, exists := lookup(EnvPrefix + "OPENAI_MAX_TOKENS"); exists {
		maxTokens, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return errors.Wrapf(err, "could not parse %sOPENAI_MAX_TOKENS", EnvPrefix)
		}
		conf.OpenAI.DefaultMaxTokens = maxTokens
	}

	if value, exists := lookup(EnvPrefix + "DEFAULT_STATUS"); exists {
		status, err := wordpress.ParseStatus(value)
		if err != nil {
			return errors.WithStack(err)
		}
		conf.App.DefaultStatus = status
	}

	if value, exists := lookup(EnvPrefix + "ENABLE_AI"); exists {
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return errors.Wrapf(err, "could not parse %sENABLE_AI", EnvPrefix)
		}
		conf.App.EnableAIByDefault = enabled
	}

	if value, exists := lookup(EnvPrefix + "TIMEOUT"); exists {
		timeout, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return errors.Wrapf(err, "could not parse %sTIMEOUT", EnvPrefix)
		}
		conf.App.Timeout = timeout
	}

	return nil
}
