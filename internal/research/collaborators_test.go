package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/pkg/anthropic"
)

type fakeAnthropicClient struct {
	text string
	err  error
	last anthropic.MessageRequest
}

func (f *fakeAnthropicClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

func TestLLMQueryGenerator_ParsesLines(t *testing.T) {
	client := &fakeAnthropicClient{text: "acme revenue 2024\n- acme funding rounds\n2. acme valuation\n\n  * acme investors  \n"}
	gen := NewLLMQueryGenerator(client, "claude-haiku-4-5-20251001")

	state := model.NewResearchState("job-1", "Acme Corp", "")
	queries, err := gen.GenerateQueries(context.Background(), state, "prompt")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"acme revenue 2024",
		"acme funding rounds",
		"acme valuation",
		"acme investors",
	}, queries)
	assert.Equal(t, "claude-haiku-4-5-20251001", client.last.Model)
}

func TestLLMQueryGenerator_CapsQueryCount(t *testing.T) {
	client := &fakeAnthropicClient{text: "q1\nq2\nq3\nq4\nq5\nq6"}
	gen := NewLLMQueryGenerator(client, "model")

	queries, err := gen.GenerateQueries(context.Background(), model.NewResearchState("j", "c", ""), "p")
	require.NoError(t, err)
	assert.Len(t, queries, maxQueriesPerAnalyst)
}

func TestGeminiFactClient_FormatsIndustryHint(t *testing.T) {
	var gotPrompt string
	client := geminiFunc(func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "1200 (2023)", nil
	})

	facts := NewGeminiFactClient(client, DefaultPrompts())

	answer, err := facts.Ask(context.Background(), "Acme Corp", "manufacturing")
	require.NoError(t, err)
	assert.Equal(t, "1200 (2023)", answer)
	assert.Contains(t, gotPrompt, "'Acme Corp'")
	assert.Contains(t, gotPrompt, "in the manufacturing industry")

	_, err = facts.Ask(context.Background(), "Acme Corp", "")
	require.NoError(t, err)
	assert.NotContains(t, gotPrompt, "in the  industry")
}

// geminiFunc adapts a function to the gemini.Client interface.
type geminiFunc func(ctx context.Context, prompt string) (string, error)

func (f geminiFunc) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
