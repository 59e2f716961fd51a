package curator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-report/internal/model"
)

func TestPreserveRestore_ValueCopy(t *testing.T) {
	state := testState(t)
	state.EmployeeCount = map[string]int{"acme.com": 1200}
	state.CompanyCount = 1

	preserved := preserveCriticalState(state)

	// Mutations after preservation must not leak into the copy.
	state.EmployeeCount["acme.com"] = 999
	state.EmployeeCount = nil
	state.CompanyCount = 0

	restoreCriticalState(state, preserved)

	assert.Equal(t, map[string]int{"acme.com": 1200}, state.EmployeeCount)
	assert.Equal(t, 1, state.CompanyCount)
}

func TestRestore_EmptyPreservedLeavesStateAlone(t *testing.T) {
	state := testState(t)
	preserved := preserveCriticalState(state)

	state.EmployeeCount = map[string]int{"found-later.com": 42}
	state.CompanyCount = 1

	restoreCriticalState(state, preserved)

	// Nothing was preserved, so the later discovery survives.
	assert.Equal(t, map[string]int{"found-later.com": 42}, state.EmployeeCount)
	assert.Equal(t, 1, state.CompanyCount)
}

func TestRestore_MergesEmployeeCountSection(t *testing.T) {
	state := testState(t)
	state.EmployeeCount = map[string]int{"acme.com": 1200}
	state.EnrichmentCounts = &model.EnrichmentSnapshot{
		EmployeeCount: model.EmployeeCountSection{
			Enriched:    1200,
			Total:       1,
			Data:        map[string]int{"acme.com": 1200},
			HasData:     true,
			TotalCount:  1200,
			ValidCounts: 1,
		},
	}

	preserved := preserveCriticalState(state)

	// Curation replaces the snapshot wholesale.
	state.EnrichmentCounts = &model.EnrichmentSnapshot{
		News: model.CategoryCount{Enriched: 3, Total: 5},
	}

	restoreCriticalState(state, preserved)

	require.NotNil(t, state.EnrichmentCounts)
	assert.Equal(t, 1200, state.EnrichmentCounts.EmployeeCount.Enriched)
	assert.True(t, state.EnrichmentCounts.EmployeeCount.HasData)
	// The rest of the new snapshot is untouched.
	assert.Equal(t, 3, state.EnrichmentCounts.News.Enriched)
}
