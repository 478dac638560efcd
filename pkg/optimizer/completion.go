package optimizer

import (
	"context"
	"math"
	"strings"

	"github.com/bornholm/genai/llm"
	"github.com/bornholm/genai/llm/provider"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	_ "github.com/bornholm/genai/llm/provider/all"
)

// ClientFactory returns the chat completion client bound to the given model.
type ClientFactory func(ctx context.Context, model string) (llm.ChatCompletionClient, error)

// ProviderBaseURLs are the default endpoints of the supported providers.
var ProviderBaseURLs = map[provider.Name]string{
	"openai":     DefaultBaseURL,
	"openrouter": "https://openrouter.ai/api/v1",
	"mistral":    "https://api.mistral.ai/v1",
}

// ProviderFactory creates clients through the genai provider registry.
// Providers handle their own retries.
func ProviderFactory(name provider.Name, baseURL string, apiKey string) ClientFactory {
	return func(ctx context.Context, model string) (llm.ChatCompletionClient, error) {
		client, err := provider.Create(ctx, provider.WithChatCompletionOptions(provider.ClientOptions{
			Provider: name,
			BaseURL:  strings.TrimRight(baseURL, "/") + "/",
			APIKey:   apiKey,
			Model:    model,
		}))
		if err != nil {
			return nil, errors.Wrapf(err, "could not create '%s' chat completion client", name)
		}

		return client, nil
	}
}

// OpenAIClient is a llm.ChatCompletionClient backed by go-openai.
// Requests are sent once and transport errors are returned unwrapped.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// ChatCompletion implements llm.ChatCompletionClient.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, funcs ...llm.ChatCompletionOptionFunc) (llm.ChatCompletionResponse, error) {
	opts := llm.NewChatCompletionOptions(funcs...)

	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(opts.Messages))
	for _, m := range opts.Messages {
		role := openai.ChatMessageRoleUser
		switch m.Role() {
		case llm.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case llm.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}

		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content()})
	}

	// A zero temperature would be dropped from the payload.
	temperature := float32(opts.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	}

	if opts.MaxCompletionTokens != nil {
		req.MaxTokens = *opts.MaxCompletionTokens
	}

	res, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(res.Choices) == 0 {
		return nil, errors.WithStack(llm.ErrNoMessage)
	}

	usage := llm.NewChatCompletionUsage(int64(res.Usage.PromptTokens), int64(res.Usage.CompletionTokens), int64(res.Usage.TotalTokens))

	return llm.NewChatCompletionResponse(llm.NewMessage(llm.RoleAssistant, res.Choices[0].Message.Content), usage), nil
}

func NewOpenAIClient(client *openai.Client, model string) *OpenAIClient {
	return &OpenAIClient{
		client: client,
		model:  model,
	}
}

var _ llm.ChatCompletionClient = &OpenAIClient{}
