// Package research runs the analyzer stages that gather raw documents into
// the shared research state: company, industry, financial, and news. Each
// stage generates search queries with an LLM, fans them out to the search
// provider, and tolerates collaborator failures by degrading to fewer
// documents rather than failing the job.
package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/internal/progress"
)

// QueryGenerator produces search queries for a research state from a prompt
// template. Failures are treated as "no queries" by callers, not fatal.
type QueryGenerator interface {
	GenerateQueries(ctx context.Context, state *model.ResearchState, prompt string) ([]string, error)
}

// DocumentSearcher retrieves documents for a set of queries. It may return
// an empty set and must not mutate its inputs.
type DocumentSearcher interface {
	Search(ctx context.Context, queries []string) (*model.DocumentSet, error)
}

// Analyzer is one research stage.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, state *model.ResearchState) error
}

// analyzer carries the collaborators shared by every stage.
type analyzer struct {
	queries  QueryGenerator
	searcher DocumentSearcher
	notifier progress.Notifier
	prompts  *Prompts
}

// generateQueries asks the LLM for search queries. A generator failure
// degrades to no queries.
func (a *analyzer) generateQueries(ctx context.Context, state *model.ResearchState, prompt string) []string {
	queries, err := a.queries.GenerateQueries(ctx, state, prompt)
	if err != nil {
		zap.L().Warn("research: query generation failed",
			zap.String("job_id", state.JobID),
			zap.Error(err),
		)
		return nil
	}
	return queries
}

// searchQuery runs one query and folds the results into data, tagging each
// document with its originating query. A search failure degrades to no
// documents for that query only.
func (a *analyzer) searchQuery(ctx context.Context, state *model.ResearchState, data *model.DocumentSet, query string, index int) int {
	found, err := a.searcher.Search(ctx, []string{query})
	if err != nil {
		zap.L().Warn("research: search failed",
			zap.String("job_id", state.JobID),
			zap.String("query", query),
			zap.Error(err),
		)
		return 0
	}

	added := 0
	found.Each(func(url string, doc *model.Document) {
		doc.Query = query
		doc.QueryIndex = index
		if data.Put(url, doc) {
			added++
		}
	})
	return added
}

// announceQueries logs the generated subqueries into the narration log and
// pushes them to observers.
func (a *analyzer) announceQueries(state *model.ResearchState, analystName, step string, queries []string) {
	lines := make([]string, 0, len(queries)+1)
	lines = append(lines, fmt.Sprintf("Subqueries for %s:", strings.ToLower(step)))
	for _, q := range queries {
		lines = append(lines, "- "+q)
	}
	state.AppendMessage(strings.Join(lines, "\n"))

	a.notifier.Notify(state.JobID, progress.StatusProcessing,
		fmt.Sprintf("%s queries generated", step),
		map[string]any{
			"step":         step,
			"analyst_type": analystName,
			"queries":      queries,
			"query_count":  len(queries),
		})
}
