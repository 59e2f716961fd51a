package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/internal/progress"
)

// categoryAnalyzer is the shared implementation behind the industry,
// financial, and news stages: generate queries, search per query, store the
// raw document set for the category.
type categoryAnalyzer struct {
	analyzer
	name     string
	step     string
	category model.DocType
	prompt   func(p *Prompts) string
}

// Name implements Analyzer.
func (a *categoryAnalyzer) Name() string { return a.name }

// Analyze implements Analyzer.
func (a *categoryAnalyzer) Analyze(ctx context.Context, state *model.ResearchState) error {
	industry := state.Industry
	if industry == "" {
		industry = "unknown"
	}
	msg := []string{fmt.Sprintf("%s analyzing %s in %s", a.name, state.Company, industry)}

	queries := a.generateQueries(ctx, state, fmt.Sprintf(a.prompt(a.prompts), state.Company, industry))
	state.Queries[string(a.category)] = queries
	a.announceQueries(state, a.name, a.step, queries)

	data := model.NewDocumentSet()

	if state.SiteScrape != "" && a.category == model.DocTypeIndustry {
		msg = append(msg, "Including site scrape data in industry analysis")
		key := state.CompanyURL
		if key == "" {
			key = "company-website"
		}
		data.Put(key, &model.Document{
			Title:      state.Company,
			RawContent: state.SiteScrape,
			Query:      fmt.Sprintf("Industry analysis on %s", state.Company),
		})
	}

	for i, query := range queries {
		a.searchQuery(ctx, state, data, query, i)
	}

	msg = append(msg, fmt.Sprintf("Found %d documents", data.Len()))
	a.storeData(state, data)
	state.AppendMessage(strings.Join(msg, "\n"))

	a.notifier.Notify(state.JobID, progress.StatusProcessing,
		fmt.Sprintf("Search found %d documents", data.Len()),
		map[string]any{
			"step":         "Searching",
			"analyst_type": a.name,
			"queries":      queries,
		})

	zap.L().Info("research: category analysis complete",
		zap.String("job_id", state.JobID),
		zap.String("category", string(a.category)),
		zap.Int("documents", data.Len()),
	)
	return nil
}

func (a *categoryAnalyzer) storeData(state *model.ResearchState, data *model.DocumentSet) {
	switch a.category {
	case model.DocTypeIndustry:
		state.IndustryData = data
	case model.DocTypeFinancial:
		state.FinancialData = data
	case model.DocTypeNews:
		state.NewsData = data
	}
}

// NewIndustryAnalyzer creates the industry stage.
func NewIndustryAnalyzer(gen QueryGenerator, search DocumentSearcher, notifier progress.Notifier, prompts *Prompts) Analyzer {
	return &categoryAnalyzer{
		analyzer: analyzer{queries: gen, searcher: search, notifier: notifier, prompts: prompts},
		name:     "Industry Analyst",
		step:     "Industry analysis",
		category: model.DocTypeIndustry,
		prompt:   func(p *Prompts) string { return p.Industry },
	}
}

// NewFinancialAnalyzer creates the financial stage.
func NewFinancialAnalyzer(gen QueryGenerator, search DocumentSearcher, notifier progress.Notifier, prompts *Prompts) Analyzer {
	return &categoryAnalyzer{
		analyzer: analyzer{queries: gen, searcher: search, notifier: notifier, prompts: prompts},
		name:     "Financial Analyst",
		step:     "Financial analysis",
		category: model.DocTypeFinancial,
		prompt:   func(p *Prompts) string { return p.Financial },
	}
}

// NewNewsAnalyzer creates the news stage.
func NewNewsAnalyzer(gen QueryGenerator, search DocumentSearcher, notifier progress.Notifier, prompts *Prompts) Analyzer {
	return &categoryAnalyzer{
		analyzer: analyzer{queries: gen, searcher: search, notifier: notifier, prompts: prompts},
		name:     "News Analyst",
		step:     "News analysis",
		category: model.DocTypeNews,
		prompt:   func(p *Prompts) string { return p.News },
	}
}
