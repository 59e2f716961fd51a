// Package gemini wraps the Google GenAI SDK behind the single text
// generation call the fact-query stage needs.
package gemini

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// Client generates text completions from the Gemini API.
type Client interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type genaiClient struct {
	client *genai.Client
	model  string
}

// Option configures the client.
type Option func(*genaiClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *genaiClient) {
		c.model = model
	}
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	c := &genaiClient{client: client, model: defaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *genaiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", eris.Wrap(err, "gemini: generate content")
	}

	text := result.Text()
	if text == "" {
		return "", eris.New("gemini: empty response")
	}
	return strings.TrimSpace(text), nil
}
