package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/curator"
	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/internal/progress"
	"github.com/sells-group/research-report/internal/store"
)

// Runner sequences one research job end to end: the four analyzer stages,
// the curation pass, and persistence of the final snapshot. Stages run in a
// fixed order against the shared state; analyzer failures degrade the job
// rather than failing it, so the only hard-fail paths are store errors.
type Runner struct {
	analyzers []Analyzer
	curator   *curator.Curator
	store     store.Store
	notifier  progress.Notifier
}

// NewRunner creates a Runner. A nil notifier disables progress updates.
func NewRunner(analyzers []Analyzer, cur *curator.Curator, st store.Store, notifier progress.Notifier) *Runner {
	if notifier == nil {
		notifier = progress.Nop{}
	}
	return &Runner{
		analyzers: analyzers,
		curator:   cur,
		store:     st,
		notifier:  notifier,
	}
}

// NewDefaultAnalyzers builds the standard four-stage pipeline in execution
// order: company first (it owns the employee-count fact), then industry,
// financial, and news.
func NewDefaultAnalyzers(gen QueryGenerator, search DocumentSearcher, facts FactClient, notifier progress.Notifier, prompts *Prompts) []Analyzer {
	return []Analyzer{
		NewCompanyAnalyzer(gen, search, facts, notifier, prompts),
		NewIndustryAnalyzer(gen, search, notifier, prompts),
		NewFinancialAnalyzer(gen, search, notifier, prompts),
		NewNewsAnalyzer(gen, search, notifier, prompts),
	}
}

// Run executes the full pipeline for an already-created job and returns the
// final state. Store failures fail the job; a panic anywhere in the pipeline
// is converted to a failed job with the error recorded.
func (r *Runner) Run(ctx context.Context, job *model.Job) (state *model.ResearchState, err error) {
	log := zap.L().With(zap.String("job_id", job.ID), zap.String("company", job.Company))

	defer func() {
		if rec := recover(); rec != nil {
			err = eris.Errorf("research: panic running job %s: %v", job.ID, rec)
		}
		if err != nil {
			r.failJob(ctx, job.ID, err)
		}
	}()

	state = model.NewResearchState(job.ID, job.Company, job.Industry)
	state.CompanyURL = job.CompanyURL

	if err := r.store.UpdateJobStatus(ctx, job.ID, model.JobStatusResearching); err != nil {
		return nil, eris.Wrap(err, "research: mark researching")
	}
	r.notifier.Notify(job.ID, progress.StatusProcessing,
		fmt.Sprintf("Starting research for %s", job.Company),
		map[string]any{"step": "Research", "company": job.Company})

	for _, a := range r.analyzers {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "research: job cancelled")
		}
		if analyzeErr := a.Analyze(ctx, state); analyzeErr != nil {
			// Analyzer failures degrade to fewer documents; the job goes on.
			log.Warn("research: analyzer failed",
				zap.String("analyzer", a.Name()),
				zap.Error(analyzeErr),
			)
		}
	}

	if err := r.store.UpdateJobStatus(ctx, job.ID, model.JobStatusCurating); err != nil {
		return nil, eris.Wrap(err, "research: mark curating")
	}

	state = r.curator.Run(state)

	if err := r.persist(ctx, state); err != nil {
		return nil, err
	}

	if err := r.store.UpdateJobStatus(ctx, job.ID, model.JobStatusComplete); err != nil {
		return nil, eris.Wrap(err, "research: mark complete")
	}

	r.notifier.Notify(job.ID, progress.StatusResearchComplete,
		fmt.Sprintf("Research complete for %s", job.Company),
		map[string]any{
			"step":             "Research Complete",
			"company":          job.Company,
			"enrichmentCounts": state.EnrichmentCounts,
			"employee_count":   state.EmployeeCount,
			"references":       state.References,
		})

	log.Info("research: job complete",
		zap.Int("references", len(state.References)),
		zap.Int("company_count", state.CompanyCount),
	)
	return state, nil
}

// persist writes the enrichment snapshot onto the job row and the final
// report.
func (r *Runner) persist(ctx context.Context, state *model.ResearchState) error {
	if err := r.store.UpdateJobEnrichment(ctx, state.JobID, state.EnrichmentCounts, state.EmployeeCount); err != nil {
		return eris.Wrap(err, "research: persist enrichment")
	}

	report := &model.Report{
		JobID:            state.JobID,
		Content:          renderSummary(state),
		References:       state.References,
		Sections:         sectionList(state),
		Queries:          state.Queries,
		EnrichmentCounts: state.EnrichmentCounts,
		EmployeeCount:    state.EmployeeCount,
	}
	if err := r.store.SaveReport(ctx, report); err != nil {
		return eris.Wrap(err, "research: persist report")
	}
	return nil
}

// failJob records the failure on the job row and notifies observers. Both
// are best effort; the original error is what callers see.
func (r *Runner) failJob(ctx context.Context, jobID string, cause error) {
	if updateErr := r.store.UpdateJobError(ctx, jobID, cause.Error()); updateErr != nil {
		zap.L().Error("research: failed to record job error",
			zap.String("job_id", jobID),
			zap.Error(updateErr),
		)
	}
	r.notifier.Notify(jobID, progress.StatusResearchFailed, "Research failed",
		map[string]any{"error": cause.Error()})
}

// sectionList names the categories that ended up with curated documents, in
// category order.
func sectionList(state *model.ResearchState) []string {
	var sections []string
	for _, cat := range model.Categories {
		if state.CuratedData(cat).Len() > 0 {
			sections = append(sections, string(cat))
		}
	}
	return sections
}

// renderSummary assembles the narration log and curated-document digest into
// the stored report body.
func renderSummary(state *model.ResearchState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n", state.Company)
	if state.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n\n", state.Industry)
	}

	for _, cat := range model.Categories {
		curated := state.CuratedData(cat)
		if curated.Len() == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", titleCase(string(cat)))
		curated.Each(func(url string, doc *model.Document) {
			title := doc.Title
			if title == "" {
				title = url
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", title, url)
		})
		b.WriteString("\n")
	}

	if len(state.References) > 0 {
		b.WriteString("## References\n\n")
		for _, ref := range state.References {
			if title, ok := state.ReferenceTitles[ref]; ok && title != "" {
				fmt.Fprintf(&b, "- [%s](%s)\n", title, ref)
			} else {
				fmt.Fprintf(&b, "- %s\n", ref)
			}
		}
		b.WriteString("\n")
	}

	for _, m := range state.Messages {
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
