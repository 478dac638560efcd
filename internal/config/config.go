package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/bornholm/genai/llm/provider"
	"github.com/bornholm/wppublisher/pkg/optimizer"
	"github.com/bornholm/wppublisher/pkg/wordpress"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	WordPress WordPress         `yaml:"wordpress"`
	OpenAI    OpenAI            `yaml:"openai"`
	Prompts   map[string]string `yaml:"prompts,omitempty"`
	App       App               `yaml:"app"`
}

type WordPress struct {
	SiteURL     string `yaml:"siteURL"`
	Username    string `yaml:"username"`
	AppPassword string `yaml:"appPassword"`
}

type OpenAI struct {
	APIKey             string  `yaml:"apiKey"`
	Provider           string  `yaml:"provider,omitempty"`
	BaseURL            string  `yaml:"baseURL"`
	DefaultModel       string  `yaml:"defaultModel"`
	DefaultTemperature float64 `yaml:"defaultTemperature"`
	DefaultMaxTokens   int     `yaml:"defaultMaxTokens"`
	SystemPrompt       string  `yaml:"systemPrompt"`
}

type App struct {
	DefaultStatus     wordpress.Status `yaml:"defaultStatus"`
	EnableAIByDefault bool             `yaml:"enableAIByDefault"`
	Timeout           time.Duration    `yaml:"timeout"`
}

func Default() *Config {
	return &Config{
		OpenAI: OpenAI{
			BaseURL:            optimizer.DefaultBaseURL,
			DefaultModel:       optimizer.DefaultModel,
			DefaultTemperature: optimizer.DefaultTemperature,
			DefaultMaxTokens:   optimizer.DefaultMaxTokens,
			SystemPrompt:       optimizer.DefaultSystemPrompt,
		},
		Prompts: map[string]string{},
		App: App{
			DefaultStatus:     wordpress.StatusPublish,
			EnableAIByDefault: false,
			Timeout:           30 * time.Second,
		},
	}
}

// Credentials returns the WordPress credentials of the configuration.
func (c *Config) Credentials() wordpress.Credentials {
	return wordpress.Credentials{
		SiteURL:     c.WordPress.SiteURL,
		Username:    c.WordPress.Username,
		AppPassword: c.WordPress.AppPassword,
	}
}

// Validate reports every problem of the configuration at once.
// The OpenAI api key is optional.
func (c *Config) Validate() error {
	var err error

	if c.WordPress.SiteURL == "" {
		err = multierror.Append(err, errors.Wrap(ErrInvalid, "wordpress site url is missing"))
	} else if u, parseErr := url.Parse(c.WordPress.SiteURL); parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		err = multierror.Append(err, errors.Wrapf(ErrInvalid, "wordpress site url '%s' is not a valid http(s) url", c.WordPress.SiteURL))
	}

	if c.WordPress.Username == "" {
		err = multierror.Append(err, errors.Wrap(ErrInvalid, "wordpress username is missing"))
	}

	if c.WordPress.AppPassword == "" {
		err = multierror.Append(err, errors.Wrap(ErrInvalid, "wordpress application password is missing"))
	}

	if _, statusErr := wordpress.ParseStatus(string(c.App.DefaultStatus)); statusErr != nil || c.App.DefaultStatus == "" {
		err = multierror.Append(err, errors.Wrapf(ErrInvalid, "default status '%s' is not valid", c.App.DefaultStatus))
	}

	if c.OpenAI.DefaultTemperature < 0 || c.OpenAI.DefaultTemperature > 1 {
		err = multierror.Append(err, errors.Wrapf(ErrInvalid, "default temperature %v is out of the [0, 1] range", c.OpenAI.DefaultTemperature))
	}

	if c.OpenAI.Provider != "" {
		if _, exists := optimizer.ProviderBaseURLs[provider.Name(c.OpenAI.Provider)]; !exists {
			err = multierror.Append(err, errors.Wrapf(ErrInvalid, "completion provider '%s' is not supported", c.OpenAI.Provider))
		}
	}

	if c.OpenAI.DefaultMaxTokens <= 0 {
		err = multierror.Append(err, errors.Wrapf(ErrInvalid, "default max tokens must be positive, got %d", c.OpenAI.DefaultMaxTokens))
	}

	if c.App.Timeout <= 0 {
		err = multierror.Append(err, errors.Wrapf(ErrInvalid, "timeout must be positive, got %s", c.App.Timeout))
	}

	return err
}

// Masked returns a copy of the configuration with its secrets masked.
func (c *Config) Masked() *Config {
	masked := *c
	masked.WordPress.AppPassword = mask(c.WordPress.AppPassword)
	masked.OpenAI.APIKey = mask(c.OpenAI.APIKey)

	masked.Prompts = make(map[string]string, len(c.Prompts))
	for name, tmpl := range c.Prompts {
		masked.Prompts[name] = tmpl
	}

	return &masked
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}

	return secret[:4] + strings.Repeat("*", len(secret)-4)
}
