package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/pkg/anthropic"
	"github.com/sells-group/research-report/pkg/gemini"
	"github.com/sells-group/research-report/pkg/tavily"
)

const (
	maxQueriesPerAnalyst = 4
	queryGenMaxTokens    = 512
)

// LLMQueryGenerator generates search queries with an Anthropic model.
type LLMQueryGenerator struct {
	client anthropic.Client
	model  string
}

// NewLLMQueryGenerator creates a QueryGenerator backed by Claude.
func NewLLMQueryGenerator(client anthropic.Client, model string) *LLMQueryGenerator {
	return &LLMQueryGenerator{client: client, model: model}
}

// GenerateQueries implements QueryGenerator. The model is asked for one
// query per line; lines are cleaned of bullets and capped.
func (g *LLMQueryGenerator) GenerateQueries(ctx context.Context, state *model.ResearchState, prompt string) ([]string, error) {
	temp := 0.2
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   queryGenMaxTokens,
		System:      fmt.Sprintf("You generate web search queries for researching companies. Respond with at most %d queries, one per line, no numbering or bullets.", maxQueriesPerAnalyst),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "research: generate queries")
	}

	var queries []string
	for _, line := range strings.Split(resp.Text(), "\n") {
		q := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		if q == "" {
			continue
		}
		queries = append(queries, q)
		if len(queries) == maxQueriesPerAnalyst {
			break
		}
	}
	return queries, nil
}

// TavilySearcher retrieves documents from the Tavily search API.
type TavilySearcher struct {
	client     tavily.Client
	maxResults int
	rawContent bool
}

// NewTavilySearcher creates a DocumentSearcher backed by Tavily.
func NewTavilySearcher(client tavily.Client, maxResults int) *TavilySearcher {
	if maxResults <= 0 {
		maxResults = 7
	}
	return &TavilySearcher{client: client, maxResults: maxResults, rawContent: true}
}

// Search implements DocumentSearcher. Results are keyed by their reported
// URL in encounter order.
func (s *TavilySearcher) Search(ctx context.Context, queries []string) (*model.DocumentSet, error) {
	out := model.NewDocumentSet()
	for _, query := range queries {
		opts := []tavily.SearchOption{tavily.WithMaxResults(s.maxResults)}
		if s.rawContent {
			opts = append(opts, tavily.WithRawContent())
		}
		resp, err := s.client.Search(ctx, query, opts...)
		if err != nil {
			return nil, eris.Wrapf(err, "research: search %q", query)
		}
		for _, r := range resp.Results {
			if r.URL == "" {
				continue
			}
			out.Put(r.URL, &model.Document{
				Title:      r.Title,
				URL:        r.URL,
				Content:    r.Content,
				RawContent: r.RawContent,
				Score:      r.Score,
				Query:      query,
			})
		}
	}
	return out, nil
}

// GeminiFactClient answers the employee-count question with Gemini.
type GeminiFactClient struct {
	client  gemini.Client
	prompts *Prompts
}

// NewGeminiFactClient creates a FactClient backed by Gemini.
func NewGeminiFactClient(client gemini.Client, prompts *Prompts) *GeminiFactClient {
	return &GeminiFactClient{client: client, prompts: prompts}
}

// Ask implements FactClient.
func (f *GeminiFactClient) Ask(ctx context.Context, company, industry string) (string, error) {
	hint := ""
	if industry != "" {
		hint = fmt.Sprintf(" in the %s industry", industry)
	}
	answer, err := f.client.GenerateContent(ctx, fmt.Sprintf(f.prompts.Employee, company, hint))
	if err != nil {
		return "", eris.Wrap(err, "research: employee count query")
	}
	return answer, nil
}
