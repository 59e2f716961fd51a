package curator

import (
	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
)

// BuildEnrichmentCounts derives the enrichment snapshot from current state.
// This is the single authoritative validation point for the employee-count
// mapping: invalid entries are excluded (not fallback-substituted), and the
// validated mapping plus its entry count are written back into state. The
// routine is idempotent for unchanged inputs.
func (c *Curator) BuildEnrichmentCounts(state *model.ResearchState) *model.EnrichmentSnapshot {
	log := zap.L().With(zap.String("job_id", state.JobID))

	valid := make(map[string]int)
	total := 0
	for key, count := range state.EmployeeCount {
		if !model.ValidEmployeeCount(count) {
			log.Warn("curator: employee count outside valid range",
				zap.String("key", key),
				zap.Int("count", count),
			)
			continue
		}
		valid[key] = count
		total += count
	}

	// Recovery path: when the fact stage produced nothing usable, try the
	// employee_count sub-field the company analyzer embeds in its documents.
	if len(valid) == 0 && state.CompanyData.Len() > 0 {
		log.Warn("curator: no valid employee counts in state, extracting from company data")
		valid = extractEmployeeCounts(state.CompanyData)
		total = 0
		for _, count := range valid {
			total += count
		}
	}

	if len(valid) > 0 {
		state.EmployeeCount = valid
		state.CompanyCount = len(valid)
	} else {
		log.Warn("curator: no valid employee count data found")
		state.EmployeeCount = make(map[string]int)
		state.CompanyCount = 0
		valid = state.EmployeeCount
	}

	return &model.EnrichmentSnapshot{
		Company: model.CategoryCount{
			Enriched: state.CuratedCompanyData.Len(),
			Total:    state.CompanyData.Len(),
		},
		EmployeeCount: model.EmployeeCountSection{
			Enriched:    total,
			Total:       1, // one subject company
			Data:        valid,
			HasData:     len(valid) > 0 && total > 0,
			TotalCount:  total,
			ValidCounts: len(valid),
		},
		Industry: model.CategoryCount{
			Enriched: state.CuratedIndustryData.Len(),
			Total:    state.IndustryData.Len(),
		},
		Financial: model.CategoryCount{
			Enriched: state.CuratedFinancialData.Len(),
			Total:    state.FinancialData.Len(),
		},
		News: model.CategoryCount{
			Enriched: state.CuratedNewsData.Len(),
			Total:    state.NewsData.Len(),
		},
	}
}

// extractEmployeeCounts pulls employee_count sub-fields out of company
// documents, applying the same range validation as the fact mapping.
func extractEmployeeCounts(companyData *model.DocumentSet) map[string]int {
	valid := make(map[string]int)
	companyData.Each(func(key string, doc *model.Document) {
		count, ok := doc.EmployeeCountValue()
		if !ok {
			return
		}
		if !model.ValidEmployeeCount(count) {
			zap.L().Warn("curator: embedded employee count outside valid range",
				zap.String("url", key),
				zap.Int("count", count),
			)
			return
		}
		valid[key] = count
	})
	return valid
}
