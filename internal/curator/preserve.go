package curator

import (
	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
)

// preservedState holds value copies of the cross-cutting fact fields taken
// before category processing. The company-fact stage and the curation stage
// may interleave across calls; this reconciliation guarantees curation is
// never responsible for losing a fact it does not own.
type preservedState struct {
	employeeCount    map[string]int
	companyCount     int
	enrichmentCounts *model.EnrichmentSnapshot
}

// preserveCriticalState snapshots the employee-count fields and the current
// enrichment snapshot by value.
func preserveCriticalState(state *model.ResearchState) preservedState {
	copied := make(map[string]int, len(state.EmployeeCount))
	for k, v := range state.EmployeeCount {
		copied[k] = v
	}
	return preservedState{
		employeeCount:    copied,
		companyCount:     state.CompanyCount,
		enrichmentCounts: state.EnrichmentCounts.Clone(),
	}
}

// restoreCriticalState puts the preserved employee-count fields back
// verbatim and merges the preserved employeeCount section into whatever
// snapshot exists after curation. Category processing does not touch
// employee data itself; this guards against any future step that might.
func restoreCriticalState(state *model.ResearchState, preserved preservedState) {
	if len(preserved.employeeCount) > 0 {
		state.EmployeeCount = preserved.employeeCount
		state.CompanyCount = preserved.companyCount
		zap.L().Debug("curator: restored employee count fields",
			zap.String("job_id", state.JobID),
			zap.Int("entries", len(preserved.employeeCount)),
		)
	}

	if preserved.enrichmentCounts != nil {
		if state.EnrichmentCounts == nil {
			state.EnrichmentCounts = &model.EnrichmentSnapshot{}
		}
		state.EnrichmentCounts.EmployeeCount = preserved.enrichmentCounts.EmployeeCount
	}
}
