package prompt

import (
	"context"
	"strconv"
	"strings"

	"github.com/bornholm/wppublisher/pkg/optimizer"
	"github.com/bornholm/wppublisher/pkg/publish"
	"github.com/bornholm/wppublisher/pkg/wordpress"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var statusChoices = []wordpress.Status{
	wordpress.StatusPublish,
	wordpress.StatusDraft,
	wordpress.StatusPending,
	wordpress.StatusPrivate,
}

// Defaults are the answers selected when the operator leaves a question
// blank.
type Defaults struct {
	Status      wordpress.Status
	EnableAI    bool
	HasAPIKey   bool
	Temperature float64
	MaxTokens   int
	Templates   []string
}

// Answers holds everything collected by PublishRequest.
type Answers struct {
	Request publish.Request

	// TemplateName is the name of the selected prompt template, empty when
	// the optimization is disabled.
	TemplateName string

	// APIKey is set when the operator had to provide one.
	APIKey string
}

// PublishRequest walks the operator through the post fields and the
// optimization settings.
func (p *Prompter) PublishRequest(defaults Defaults) (*Answers, error) {
	answers := &Answers{}
	post := &answers.Request.Post

	var err error

	if post.Title, err = p.AskRequired("Title"); err != nil {
		return nil, err
	}

	if post.Content, err = p.AskMultiline("Content"); err != nil {
		return nil, err
	}

	if strings.TrimSpace(post.Content) == "" {
		return nil, errors.Wrap(publish.ErrValidation, "content must not be empty")
	}

	enableAI, err := p.Confirm("Optimize the content with AI?", defaults.EnableAI)
	if err != nil {
		return nil, err
	}

	if enableAI {
		if !defaults.HasAPIKey {
			if answers.APIKey, err = p.AskRequired("OpenAI API key"); err != nil {
				return nil, err
			}
		}

		templates := defaults.Templates
		if len(templates) == 0 {
			templates = optimizer.TemplateNames
		}

		index, err := p.Choose("Prompt template", templates, 0)
		if err != nil {
			return nil, err
		}

		answers.TemplateName = templates[index]

		temperature, err := p.AskFloat("Temperature (0-1)", defaults.Temperature, 0, 1)
		if err != nil {
			return nil, err
		}

		maxTokens, err := p.AskInt("Max tokens", defaults.MaxTokens, 1)
		if err != nil {
			return nil, err
		}

		answers.Request.Optimization = &optimizer.Request{
			Temperature: &temperature,
			MaxTokens:   maxTokens,
		}
	}

	statusLabels := make([]string, len(statusChoices))
	defaultStatus := 0
	for i, status := range statusChoices {
		statusLabels[i] = string(status)
		if status == defaults.Status {
			defaultStatus = i
		}
	}

	index, err := p.Choose("Status", statusLabels, defaultStatus)
	if err != nil {
		return nil, err
	}

	post.Status = statusChoices[index]

	if post.Categories, err = p.AskIDs("Categories"); err != nil {
		return nil, err
	}

	if post.Tags, err = p.AskIDs("Tags"); err != nil {
		return nil, err
	}

	if post.Excerpt, err = p.Ask("Excerpt", ""); err != nil {
		return nil, err
	}

	return answers, nil
}

// Review shows the optimized content and asks whether it replaces the
// original one.
func (p *Prompter) Review(ctx context.Context, original, optimized string) (bool, error) {
	labelColor.Fprintln(p.out, "\nOptimized content:")
	p.Printf("%s\n\n", publish.Preview(optimized, publish.DefaultPreviewLength))

	return p.Confirm("Use the optimized content?", true)
}

// ConfirmPost prints a summary of the post and asks for a final
// confirmation.
func (p *Prompter) ConfirmPost(ctx context.Context, post wordpress.PostRequest) (bool, error) {
	p.Summary(post)

	return p.Confirm("Publish this post?", false)
}

func (p *Prompter) Summary(post wordpress.PostRequest) {
	bold := color.New(color.Bold)

	labelColor.Fprintln(p.out, "\nSummary:")
	bold.Fprint(p.out, "  Title:      ")
	p.Printf("%s\n", post.Title)
	bold.Fprint(p.out, "  Status:     ")
	p.Printf("%s\n", post.Status)

	if len(post.Categories) > 0 {
		bold.Fprint(p.out, "  Categories: ")
		p.Printf("%s\n", joinIDs(post.Categories))
	}

	if len(post.Tags) > 0 {
		bold.Fprint(p.out, "  Tags:       ")
		p.Printf("%s\n", joinIDs(post.Tags))
	}

	if post.Excerpt != "" {
		bold.Fprint(p.out, "  Excerpt:    ")
		p.Printf("%s\n", post.Excerpt)
	}

	bold.Fprint(p.out, "  Content:    ")
	p.Printf("%s\n\n", publish.Preview(post.Content, publish.DefaultPreviewLength))
}

func joinIDs(ids []int) string {
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = strconv.Itoa(id)
	}

	return strings.Join(items, ", ")
}
