package command

import (
	"context"

	"github.com/bornholm/genai/llm/provider"
	"github.com/bornholm/wppublisher/internal/config"
	"github.com/bornholm/wppublisher/pkg/optimizer"
	"github.com/bornholm/wppublisher/pkg/publish"
	"github.com/bornholm/wppublisher/pkg/wordpress"
)

func NewOptimizer(conf *config.Config) *optimizer.Optimizer {
	return optimizer.New(
		conf.OpenAI.APIKey,
		optimizer.WithProvider(provider.Name(conf.OpenAI.Provider)),
		optimizer.WithBaseURL(conf.OpenAI.BaseURL),
		optimizer.WithModel(conf.OpenAI.DefaultModel),
		optimizer.WithTemperature(conf.OpenAI.DefaultTemperature),
		optimizer.WithMaxTokens(conf.OpenAI.DefaultMaxTokens),
		optimizer.WithSystemPrompt(conf.OpenAI.SystemPrompt),
		optimizer.WithTemplates(conf.Prompts),
		optimizer.WithTimeout(conf.App.Timeout),
	)
}

func NewWordPressClient(conf *config.Config) *wordpress.Client {
	return wordpress.NewClient(
		conf.Credentials(),
		wordpress.WithTimeout(conf.App.Timeout),
		wordpress.WithDefaultStatus(conf.App.DefaultStatus),
	)
}

// SpinningPublisher shows a spinner while the post is being created.
type SpinningPublisher struct {
	publish.Publisher
}

func (p SpinningPublisher) CreatePost(ctx context.Context, post wordpress.PostRequest) (*wordpress.PostResult, error) {
	var created *wordpress.PostResult

	err := Spin("Publishing post...", func() error {
		var err error
		created, err = p.Publisher.CreatePost(ctx, post)
		return err
	})

	return created, err
}

// SpinningOptimizer shows a spinner while the content is being optimized.
type SpinningOptimizer struct {
	publish.Optimizer
}

func (o SpinningOptimizer) Optimize(ctx context.Context, req optimizer.Request) (string, error) {
	var optimized string

	err := Spin("Optimizing content...", func() error {
		var err error
		optimized, err = o.Optimizer.Optimize(ctx, req)
		return err
	})

	return optimized, err
}
