package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/internal/progress"
)

// FactClient answers the employee-count question for a company. The answer
// is free-form text with no format guarantee; callers parse defensively.
type FactClient interface {
	Ask(ctx context.Context, company, industry string) (string, error)
}

// CompanyAnalyzer gathers company-fundamentals documents and determines the
// employee-count fact. It writes employee_count into the shared state as
// soon as the fact is known so the UI updates before document search runs.
type CompanyAnalyzer struct {
	analyzer
	facts FactClient
}

// NewCompanyAnalyzer creates the company stage.
func NewCompanyAnalyzer(gen QueryGenerator, search DocumentSearcher, facts FactClient, notifier progress.Notifier, prompts *Prompts) *CompanyAnalyzer {
	return &CompanyAnalyzer{
		analyzer: analyzer{queries: gen, searcher: search, notifier: notifier, prompts: prompts},
		facts:    facts,
	}
}

// Name implements Analyzer.
func (a *CompanyAnalyzer) Name() string { return "Company Analyst" }

// Analyze implements Analyzer.
func (a *CompanyAnalyzer) Analyze(ctx context.Context, state *model.ResearchState) error {
	log := zap.L().With(zap.String("job_id", state.JobID), zap.String("company", state.Company))
	msg := []string{fmt.Sprintf("Company Analyzer analyzing %s", state.Company)}

	industry := state.Industry
	if industry == "" {
		industry = "unknown"
	}

	queries := a.generateQueries(ctx, state, fmt.Sprintf(a.prompts.Company, state.Company, industry))
	state.Queries["company"] = queries
	a.announceQueries(state, a.Name(), "Company analysis", queries)

	companyData := model.NewDocumentSet()

	// Seed with the site scrape when the orchestrator provided one.
	companyKey := state.CompanyURL
	if companyKey == "" {
		companyKey = strings.ToLower(strings.ReplaceAll(state.Company, " ", "-"))
	}
	if state.SiteScrape != "" {
		msg = append(msg, "Including site scrape data in company analysis")
		companyData.Put(companyKey, &model.Document{
			Title:      state.Company,
			RawContent: state.SiteScrape,
			Query:      fmt.Sprintf("Company overview and information about %s", state.Company),
		})
	}

	// Employee-count fact runs first so the UI gets the number immediately.
	a.notifier.Notify(state.JobID, progress.StatusProcessing, "Analyzing employee count...",
		map[string]any{
			"step":         "Employee Count Analysis",
			"analyst_type": a.Name(),
			"enrichmentCounts": map[string]any{
				"employeeCount": map[string]any{"enriched": 0, "total": 1, "loading": true},
			},
		})

	count := a.determineEmployeeCount(ctx, state)
	msg = append(msg, fmt.Sprintf("Employee count determined: %d", count))

	if state.EmployeeCount == nil {
		state.EmployeeCount = make(map[string]int)
	}
	state.EmployeeCount[companyKey] = count
	state.CompanyCount = len(state.EmployeeCount)

	a.sendEmployeeCountUpdate(state, count)
	a.sendEnrichmentCountsUpdate(state)

	// Make sure the main company entry exists, then record the fact on it
	// so enrichment accounting has a recovery path.
	if _, ok := companyData.Get(companyKey); !ok {
		companyData.Put(companyKey, &model.Document{
			Title:      state.Company,
			RawContent: state.SiteScrape,
			Query:      fmt.Sprintf("Company overview and information about %s", state.Company),
		})
	}
	if doc, ok := companyData.Get(companyKey); ok {
		doc.EmployeeCount = count
	}

	// Document search, per query, with per-query failure isolation.
	for i, query := range queries {
		added := a.searchQuery(ctx, state, companyData, query, i)
		if added > 0 {
			msg = append(msg, fmt.Sprintf("Query %d: found %d documents", i+1, added))
		} else {
			msg = append(msg, fmt.Sprintf("Query %d: no documents found", i+1))
		}
	}

	msg = append(msg, fmt.Sprintf("Company analysis complete: %d total documents", companyData.Len()))
	state.CompanyData = companyData
	state.AppendMessage(strings.Join(msg, "\n"))

	a.sendEnrichmentCountsUpdate(state)
	a.notifier.Notify(state.JobID, progress.StatusAnalysisComplete,
		fmt.Sprintf("Company analysis complete. Found %d documents", companyData.Len()),
		map[string]any{
			"step":             "Company Analysis Complete",
			"analyst_type":     a.Name(),
			"queries":          queries,
			"employee_count":   state.EmployeeCount,
			"company_count":    state.CompanyCount,
			"documents_found":  companyData.Len(),
			"enrichmentCounts": state.EnrichmentCounts,
		})

	log.Info("research: company analysis complete",
		zap.Int("documents", companyData.Len()),
		zap.Int("employee_count", count),
	)
	return nil
}

// determineEmployeeCount asks the fact collaborator and validates the
// answer. A collaborator failure is treated as "no answer", which parses to
// the standard fallback of 1.
func (a *CompanyAnalyzer) determineEmployeeCount(ctx context.Context, state *model.ResearchState) int {
	raw, err := a.facts.Ask(ctx, state.Company, state.Industry)
	if err != nil {
		zap.L().Error("research: employee count query failed",
			zap.String("job_id", state.JobID),
			zap.String("company", state.Company),
			zap.Error(err),
		)
		raw = ""
	}
	return ParseEmployeeCount(raw, state.Company)
}

// sendEmployeeCountUpdate pushes the freshly determined fact and folds it
// into the state's enrichment snapshot so observers see a consistent view.
func (a *CompanyAnalyzer) sendEmployeeCountUpdate(state *model.ResearchState, count int) {
	if state.EnrichmentCounts == nil {
		state.EnrichmentCounts = &model.EnrichmentSnapshot{}
	}
	state.EnrichmentCounts.EmployeeCount = model.EmployeeCountSection{
		Enriched:    count,
		Total:       1,
		Data:        map[string]int{state.Company: count},
		HasData:     count > 0,
		TotalCount:  count,
		ValidCounts: 1,
	}

	a.notifier.Notify(state.JobID, progress.StatusEmployeeCountReady,
		fmt.Sprintf("Employee count determined: %d", count),
		map[string]any{
			"step":             "Employee Count Analysis",
			"analyst_type":     a.Name(),
			"enrichmentCounts": state.EnrichmentCounts,
			"employee_count":   state.EmployeeCount,
			"company_count":    state.CompanyCount,
			"employee_data": map[string]any{
				"company": state.Company,
				"count":   count,
			},
		})
}

// sendEnrichmentCountsUpdate pushes a coarse per-category snapshot during
// the research phase, before curation has produced curated sets.
func (a *CompanyAnalyzer) sendEnrichmentCountsUpdate(state *model.ResearchState) {
	if state.EnrichmentCounts == nil {
		state.EnrichmentCounts = &model.EnrichmentSnapshot{}
	}
	state.EnrichmentCounts.Company = model.CategoryCount{
		Enriched: state.CompanyData.Len(),
		Total:    state.CompanyData.Len(),
	}
	state.EnrichmentCounts.Industry = model.CategoryCount{
		Enriched: state.IndustryData.Len(),
		Total:    state.IndustryData.Len(),
	}
	state.EnrichmentCounts.Financial = model.CategoryCount{
		Enriched: state.FinancialData.Len(),
		Total:    state.FinancialData.Len(),
	}
	state.EnrichmentCounts.News = model.CategoryCount{
		Enriched: state.NewsData.Len(),
		Total:    state.NewsData.Len(),
	}

	a.notifier.Notify(state.JobID, progress.StatusEnrichmentCounts, "Enrichment counts updated",
		map[string]any{
			"step":             "Enrichment Counts Update",
			"analyst_type":     a.Name(),
			"enrichmentCounts": state.EnrichmentCounts,
		})
}
