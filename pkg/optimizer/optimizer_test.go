package optimizer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bornholm/genai/llm"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func newCompletionServer(t *testing.T, status int, body string) (*httptest.Server, *chatRequest) {
	t.Helper()

	var captured chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chat/completions" {
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Errorf("%+v", errors.WithStack(err))
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))

	t.Cleanup(server.Close)

	return server, &captured
}

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "gpt-test",
	"choices": [
		{"index": 0, "message": {"role": "assistant", "content": "  <p>Optimized</p>\n"}, "finish_reason": "stop"},
		{"index": 1, "message": {"role": "assistant", "content": "ignored"}, "finish_reason": "stop"}
	]
}`

func TestOptimize(t *testing.T) {
	server, captured := newCompletionServer(t, http.StatusOK, completionBody)

	opt := New("sk-test", WithBaseURL(server.URL))

	temperature := 0.3

	result, err := opt.Optimize(context.Background(), Request{
		Text:        "<p>raw</p>",
		Template:    "Rewrite: {}",
		Temperature: &temperature,
		MaxTokens:   256,
		Model:       "gpt-test",
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, "<p>Optimized</p>", result)

	assert.Equal(t, "gpt-test", captured.Model)
	assert.InDelta(t, 0.3, captured.Temperature, 0.0001)
	assert.Equal(t, 256, captured.MaxTokens)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "Rewrite: <p>raw</p>", captured.Messages[1].Content)
}

func TestOptimizeDefaults(t *testing.T) {
	server, captured := newCompletionServer(t, http.StatusOK, completionBody)

	opt := New("sk-test", WithBaseURL(server.URL+"/"), WithModel("gpt-default"), WithMaxTokens(64))

	if _, err := opt.Optimize(context.Background(), Request{Text: "hello"}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, "gpt-default", captured.Model)
	assert.Equal(t, 64, captured.MaxTokens)
	assert.InDelta(t, DefaultTemperature, captured.Temperature, 0.0001)
	assert.Equal(t, RenderPrompt(Templates[DefaultTemplate], "hello"), captured.Messages[1].Content)
}

func TestOptimizeMissingAPIKey(t *testing.T) {
	for _, key := range []string{"", PlaceholderAPIKey} {
		opt := New(key, WithBaseURL("http://127.0.0.1:0"))

		_, err := opt.Optimize(context.Background(), Request{Text: "hello"})
		assert.True(t, errors.Is(err, ErrMissingAPIKey), "key %q", key)
	}
}

func TestOptimizeInvalidParameters(t *testing.T) {
	opt := New("sk-test", WithBaseURL("http://127.0.0.1:0"))

	temperature := 1.5
	_, err := opt.Optimize(context.Background(), Request{Text: "hello", Temperature: &temperature})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = opt.Optimize(context.Background(), Request{Text: "hello", MaxTokens: -1})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestOptimizeFailureKinds(t *testing.T) {
	type testCase struct {
		Name   string
		Status int
		Body   string
		Kind   error
	}

	testCases := []testCase{
		{
			Name:   "unauthorized",
			Status: http.StatusUnauthorized,
			Body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			Kind:   ErrInvalidCredentials,
		},
		{
			Name:   "rate limited",
			Status: http.StatusTooManyRequests,
			Body:   `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			Kind:   ErrRateLimited,
		},
		{
			Name:   "server error",
			Status: http.StatusInternalServerError,
			Body:   `{"error":{"message":"The server had an error","type":"server_error"}}`,
			Kind:   ErrService,
		},
		{
			Name:   "non json error",
			Status: http.StatusBadGateway,
			Body:   `<html>bad gateway</html>`,
			Kind:   ErrService,
		},
		{
			Name:   "no choices",
			Status: http.StatusOK,
			Body:   `{"id":"x","choices":[]}`,
			Kind:   ErrEmptyResponse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			server, _ := newCompletionServer(t, tc.Status, tc.Body)

			opt := New("sk-test", WithBaseURL(server.URL))

			result, err := opt.Optimize(context.Background(), Request{Text: "hello"})
			require.Error(t, err)
			assert.Empty(t, result)
			assert.True(t, errors.Is(err, tc.Kind), "expected %v, got %+v", tc.Kind, err)
			assert.NotEmpty(t, Describe(err))
		})
	}
}

func TestOptimizeConnectivityFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	opt := New("sk-test", WithBaseURL(url))

	_, err := opt.Optimize(context.Background(), Request{Text: "hello"})
	assert.True(t, errors.Is(err, ErrConnectivity), "got %+v", err)
	assert.False(t, errors.Is(err, ErrService))
}

func TestDescribeIsDistinct(t *testing.T) {
	kinds := []error{ErrMissingAPIKey, ErrInvalidCredentials, ErrRateLimited, ErrConnectivity, ErrService}

	seen := make(map[string]struct{})
	for _, kind := range kinds {
		msg := Describe(&Error{Kind: kind, Err: errors.New("cause")})
		if kind == ErrMissingAPIKey {
			msg = Describe(kind)
		}

		_, exists := seen[msg]
		assert.False(t, exists, "duplicated message %q", msg)
		seen[msg] = struct{}{}
	}
}

func TestModels(t *testing.T) {
	server, _ := newCompletionServer(t, http.StatusOK, `{"object":"list","data":[{"id":"gpt-b","object":"model"},{"id":"gpt-a","object":"model"}]}`)

	opt := New("sk-test", WithBaseURL(server.URL))

	models, err := opt.Models(context.Background())
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, []string{"gpt-a", "gpt-b"}, models)
}

func TestTemplates(t *testing.T) {
	opt := New("sk-test", WithTemplates(map[string]string{
		"default": "Custom default: {}",
		"haiku":   "Turn into a haiku: {}",
	}))

	tmpl, exists := opt.Template("default")
	require.True(t, exists)
	assert.Equal(t, "Custom default: {}", tmpl)

	assert.Equal(t, []string{"default", "technical", "creative", "seo", "minimal", "haiku"}, opt.TemplateNames())
}

func TestRenderPrompt(t *testing.T) {
	assert.Equal(t, "A hello B {}", RenderPrompt("A {} B {}", "hello"))
	assert.Equal(t, "Rewrite this\n\nhello", RenderPrompt("Rewrite this", "hello"))
}

type fakeCompletionClient struct {
	model   string
	options *llm.ChatCompletionOptions
	content string
	err     error
}

func (c *fakeCompletionClient) ChatCompletion(ctx context.Context, funcs ...llm.ChatCompletionOptionFunc) (llm.ChatCompletionResponse, error) {
	c.options = llm.NewChatCompletionOptions(funcs...)

	if c.err != nil {
		return nil, c.err
	}

	return llm.NewChatCompletionResponse(llm.NewMessage(llm.RoleAssistant, c.content), llm.NewChatCompletionUsage(0, 0, 0)), nil
}

func withFakeClient(client *fakeCompletionClient) OptionFunc {
	return WithClientFactory(func(ctx context.Context, model string) (llm.ChatCompletionClient, error) {
		client.model = model
		return client, nil
	})
}

func TestOptimizeClientFactory(t *testing.T) {
	client := &fakeCompletionClient{content: "\n<p>Rewritten</p> "}

	opt := New("sk-test", withFakeClient(client), WithModel("mistral-small"))

	temperature := 0.0

	result, err := opt.Optimize(context.Background(), Request{
		Text:        "<p>raw</p>",
		Template:    "Rewrite: {}",
		Temperature: &temperature,
		MaxTokens:   128,
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, "<p>Rewritten</p>", result)
	assert.Equal(t, "mistral-small", client.model)

	require.NotNil(t, client.options)
	assert.Equal(t, 0.0, client.options.Temperature)
	require.NotNil(t, client.options.MaxCompletionTokens)
	assert.Equal(t, 128, *client.options.MaxCompletionTokens)

	require.Len(t, client.options.Messages, 2)
	assert.Equal(t, llm.RoleSystem, client.options.Messages[0].Role())
	assert.Equal(t, DefaultSystemPrompt, client.options.Messages[0].Content())
	assert.Equal(t, llm.RoleUser, client.options.Messages[1].Role())
	assert.Equal(t, "Rewrite: <p>raw</p>", client.options.Messages[1].Content())
}

func TestOptimizeClientFailureKinds(t *testing.T) {
	type testCase struct {
		Name string
		Err  error
		Kind error
	}

	testCases := []testCase{
		{
			Name: "rate limit",
			Err:  errors.Wrap(llm.ErrRateLimit, "openai: too many requests"),
			Kind: ErrRateLimited,
		},
		{
			Name: "no message",
			Err:  errors.WithStack(llm.ErrNoMessage),
			Kind: ErrEmptyResponse,
		},
		{
			Name: "validation",
			Err:  llm.NewValidationError("messages", "at least one message is required"),
			Kind: ErrInvalidRequest,
		},
		{
			Name: "unavailable",
			Err:  errors.WithStack(llm.ErrUnavailable),
			Kind: ErrService,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			opt := New("sk-test", withFakeClient(&fakeCompletionClient{err: tc.Err}))

			_, err := opt.Optimize(context.Background(), Request{Text: "hello"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.Kind), "expected %v, got %+v", tc.Kind, err)
			assert.True(t, errors.Is(err, tc.Err))
		})
	}
}

func TestOptimizeUnknownProvider(t *testing.T) {
	opt := New("sk-test", WithProvider("unknown"))

	_, err := opt.Optimize(context.Background(), Request{Text: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrService), "got %+v", err)
}
