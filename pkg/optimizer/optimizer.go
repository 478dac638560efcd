package optimizer

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bornholm/genai/llm"
	"github.com/bornholm/genai/llm/provider"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// PlaceholderAPIKey is the sample value shipped in configuration files.
// It is treated as a missing key.
const PlaceholderAPIKey = "your_openai_api_key"

const (
	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultModel        = "gpt-3.5-turbo"
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 1000
	DefaultSystemPrompt = "You are a professional text layout optimization assistant."
)

type Options struct {
	BaseURL      string
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	Templates    map[string]string
	HTTPClient   *http.Client
	Timeout      time.Duration

	// Provider selects a genai provider for chat completions. The built-in
	// go-openai client is used when empty.
	Provider      provider.Name
	ClientFactory ClientFactory
}

type OptionFunc func(*Options)

func WithProvider(name provider.Name) OptionFunc {
	return func(opts *Options) {
		opts.Provider = name
	}
}

func WithClientFactory(factory ClientFactory) OptionFunc {
	return func(opts *Options) {
		opts.ClientFactory = factory
	}
}

func WithBaseURL(baseURL string) OptionFunc {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

func WithModel(model string) OptionFunc {
	return func(opts *Options) {
		opts.Model = model
	}
}

func WithTemperature(temperature float64) OptionFunc {
	return func(opts *Options) {
		opts.Temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) OptionFunc {
	return func(opts *Options) {
		opts.MaxTokens = maxTokens
	}
}

func WithSystemPrompt(systemPrompt string) OptionFunc {
	return func(opts *Options) {
		opts.SystemPrompt = systemPrompt
	}
}

// WithTemplates adds or overrides prompt templates.
func WithTemplates(templates map[string]string) OptionFunc {
	return func(opts *Options) {
		for name, tmpl := range templates {
			opts.Templates[name] = tmpl
		}
	}
}

func WithHTTPClient(client *http.Client) OptionFunc {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

func WithTimeout(timeout time.Duration) OptionFunc {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// Request describes a single optimization.
// Zero values fall back to the optimizer defaults.
type Request struct {
	Text        string
	Template    string
	Temperature *float64
	MaxTokens   int
	Model       string
}

// Optimizer rewrites text through an OpenAI compatible chat completion
// service.
type Optimizer struct {
	client  *openai.Client
	factory ClientFactory
	apiKey  string
	opts    *Options
}

// HasAPIKey reports whether an api key is configured.
func (o *Optimizer) HasAPIKey() bool {
	return o.apiKey != "" && o.apiKey != PlaceholderAPIKey
}

// Template returns the named prompt template.
func (o *Optimizer) Template(name string) (string, bool) {
	tmpl, exists := o.opts.Templates[name]
	return tmpl, exists
}

// TemplateNames returns the names of the available templates, built-in
// templates first in menu order.
func (o *Optimizer) TemplateNames() []string {
	names := append([]string{}, TemplateNames...)

	extra := make([]string, 0)
	for name := range o.opts.Templates {
		if _, builtin := Templates[name]; builtin {
			continue
		}
		extra = append(extra, name)
	}

	sort.Strings(extra)

	return append(names, extra...)
}

// Optimize sends the text to the completion service and returns the first
// completion choice, trimmed. The default client never retries a failure.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (string, error) {
	if !o.HasAPIKey() {
		return "", errors.WithStack(ErrMissingAPIKey)
	}

	temperature := o.opts.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	if temperature < 0 || temperature > 1 {
		return "", errors.Wrapf(ErrInvalidRequest, "temperature %v is out of the [0, 1] range", temperature)
	}

	maxTokens := o.opts.MaxTokens
	if req.MaxTokens != 0 {
		maxTokens = req.MaxTokens
	}

	if maxTokens <= 0 {
		return "", errors.Wrapf(ErrInvalidRequest, "max tokens must be positive, got %d", maxTokens)
	}

	model := o.opts.Model
	if req.Model != "" {
		model = req.Model
	}

	template := req.Template
	if template == "" {
		template = o.opts.Templates[DefaultTemplate]
	}

	slog.DebugContext(ctx, "optimizing content",
		slog.String("provider", string(o.opts.Provider)),
		slog.String("model", model),
		slog.Float64("temperature", temperature),
		slog.Int("max_tokens", maxTokens),
		slog.Int("content_length", len(req.Text)),
	)

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	client, err := o.factory(ctx, model)
	if err != nil {
		return "", errors.WithStack(&Error{Kind: ErrService, Err: err})
	}

	res, err := client.ChatCompletion(ctx,
		llm.WithMessages(
			llm.NewMessage(llm.RoleSystem, o.opts.SystemPrompt),
			llm.NewMessage(llm.RoleUser, RenderPrompt(template, req.Text)),
		),
		llm.WithTemperature(temperature),
		llm.WithMaxCompletionTokens(maxTokens),
	)
	if err != nil {
		return "", errors.WithStack(classify(err))
	}

	return strings.TrimSpace(res.Message().Content()), nil
}

// Models lists the identifiers of the models available with the configured
// api key. It doubles as a connection test.
func (o *Optimizer) Models(ctx context.Context) ([]string, error) {
	if !o.HasAPIKey() {
		return nil, errors.WithStack(ErrMissingAPIKey)
	}

	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, errors.WithStack(classify(err))
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}

	sort.Strings(ids)

	return ids, nil
}

func New(apiKey string, funcs ...OptionFunc) *Optimizer {
	opts := &Options{
		BaseURL:      DefaultBaseURL,
		Model:        DefaultModel,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
		SystemPrompt: DefaultSystemPrompt,
		Templates:    make(map[string]string, len(Templates)),
		Timeout:      30 * time.Second,
	}
	for name, tmpl := range Templates {
		opts.Templates[name] = tmpl
	}
	for _, fn := range funcs {
		fn(opts)
	}

	config := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		config.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	if opts.HTTPClient != nil {
		config.HTTPClient = opts.HTTPClient
	} else {
		config.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	client := openai.NewClientWithConfig(config)

	factory := opts.ClientFactory
	switch {
	case factory != nil:
	case opts.Provider != "":
		baseURL := opts.BaseURL
		if providerURL, exists := ProviderBaseURLs[opts.Provider]; exists && (baseURL == "" || baseURL == DefaultBaseURL) {
			baseURL = providerURL
		}
		factory = ProviderFactory(opts.Provider, baseURL, apiKey)
	default:
		factory = func(ctx context.Context, model string) (llm.ChatCompletionClient, error) {
			return NewOpenAIClient(client, model), nil
		}
	}

	return &Optimizer{
		client:  client,
		factory: factory,
		apiKey:  apiKey,
		opts:    opts,
	}
}
