package research

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/internal/progress"
)

type fakeQueryGen struct {
	queries []string
	err     error
}

func (f *fakeQueryGen) GenerateQueries(context.Context, *model.ResearchState, string) ([]string, error) {
	return f.queries, f.err
}

type fakeSearcher struct {
	byQuery map[string][]*model.Document
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, queries []string) (*model.DocumentSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := model.NewDocumentSet()
	for _, q := range queries {
		for _, d := range f.byQuery[q] {
			out.Put(d.URL, d)
		}
	}
	return out, nil
}

type fakeFacts struct {
	answer string
	err    error
}

func (f *fakeFacts) Ask(context.Context, string, string) (string, error) {
	return f.answer, f.err
}

func newTestCompanyAnalyzer(gen QueryGenerator, search DocumentSearcher, facts FactClient, rec *progress.Recorder) *CompanyAnalyzer {
	return NewCompanyAnalyzer(gen, search, facts, rec, DefaultPrompts())
}

func TestCompanyAnalyzer_HappyPath(t *testing.T) {
	rec := &progress.Recorder{}
	gen := &fakeQueryGen{queries: []string{"acme products", "acme history"}}
	search := &fakeSearcher{byQuery: map[string][]*model.Document{
		"acme products": {{URL: "https://a.com", Title: "A", Score: 0.8}},
		"acme history":  {{URL: "https://b.com", Title: "B", Score: 0.7}},
	}}
	a := newTestCompanyAnalyzer(gen, search, &fakeFacts{answer: "1200 (2023)"}, rec)

	state := model.NewResearchState("job-1", "Acme Corp", "manufacturing")
	state.CompanyURL = "https://acme.com"

	require.NoError(t, a.Analyze(context.Background(), state))

	assert.Equal(t, map[string]int{"https://acme.com": 1200}, state.EmployeeCount)
	assert.Equal(t, 1, state.CompanyCount)
	assert.Equal(t, []string{"acme products", "acme history"}, state.Queries["company"])

	// Main company document exists and carries the fact.
	doc, ok := state.CompanyData.Get("https://acme.com")
	require.True(t, ok)
	count, ok := doc.EmployeeCountValue()
	require.True(t, ok)
	assert.Equal(t, 1200, count)

	// Search results were folded in.
	assert.Equal(t, 3, state.CompanyData.Len())

	require.Len(t, rec.ByStatus(progress.StatusEmployeeCountReady), 1)
	require.Len(t, rec.ByStatus(progress.StatusAnalysisComplete), 1)
}

func TestCompanyAnalyzer_FactFailureFallsBackToOne(t *testing.T) {
	rec := &progress.Recorder{}
	a := newTestCompanyAnalyzer(
		&fakeQueryGen{},
		&fakeSearcher{},
		&fakeFacts{err: eris.New("gemini down")},
		rec,
	)

	state := model.NewResearchState("job-1", "Acme Corp", "")
	require.NoError(t, a.Analyze(context.Background(), state))

	assert.Equal(t, map[string]int{"acme-corp": 1}, state.EmployeeCount)
	assert.Equal(t, 1, state.CompanyCount)
}

func TestCompanyAnalyzer_QueryGenFailureDegrades(t *testing.T) {
	rec := &progress.Recorder{}
	a := newTestCompanyAnalyzer(
		&fakeQueryGen{err: eris.New("llm down")},
		&fakeSearcher{},
		&fakeFacts{answer: "500"},
		rec,
	)

	state := model.NewResearchState("job-1", "Acme Corp", "manufacturing")
	require.NoError(t, a.Analyze(context.Background(), state))

	// No queries, but the fact and main document still land.
	assert.Empty(t, state.Queries["company"])
	assert.Equal(t, 1, state.CompanyData.Len())
	assert.Equal(t, map[string]int{"acme-corp": 500}, state.EmployeeCount)
}

func TestCompanyAnalyzer_SearchFailureIsolatedPerQuery(t *testing.T) {
	rec := &progress.Recorder{}
	a := newTestCompanyAnalyzer(
		&fakeQueryGen{queries: []string{"q1"}},
		&fakeSearcher{err: eris.New("tavily down")},
		&fakeFacts{answer: "500"},
		rec,
	)

	state := model.NewResearchState("job-1", "Acme Corp", "manufacturing")
	require.NoError(t, a.Analyze(context.Background(), state))

	// The analyzer still succeeds with only the seeded company document.
	assert.Equal(t, 1, state.CompanyData.Len())
}

func TestCompanyAnalyzer_SiteScrapeSeed(t *testing.T) {
	rec := &progress.Recorder{}
	a := newTestCompanyAnalyzer(&fakeQueryGen{}, &fakeSearcher{}, &fakeFacts{answer: "500"}, rec)

	state := model.NewResearchState("job-1", "Acme Corp", "manufacturing")
	state.CompanyURL = "https://acme.com"
	state.SiteScrape = "About Acme: we make widgets."

	require.NoError(t, a.Analyze(context.Background(), state))

	doc, ok := state.CompanyData.Get("https://acme.com")
	require.True(t, ok)
	assert.Equal(t, "About Acme: we make widgets.", doc.RawContent)
}

func TestCategoryAnalyzer_StoresRawData(t *testing.T) {
	rec := &progress.Recorder{}
	gen := &fakeQueryGen{queries: []string{"acme industry"}}
	search := &fakeSearcher{byQuery: map[string][]*model.Document{
		"acme industry": {{URL: "https://i.com", Title: "I", Score: 0.6}},
	}}

	a := NewIndustryAnalyzer(gen, search, rec, DefaultPrompts())
	state := model.NewResearchState("job-1", "Acme Corp", "manufacturing")

	require.NoError(t, a.Analyze(context.Background(), state))

	require.Equal(t, 1, state.IndustryData.Len())
	doc, ok := state.IndustryData.Get("https://i.com")
	require.True(t, ok)
	assert.Equal(t, "acme industry", doc.Query)
	assert.Equal(t, []string{"acme industry"}, state.Queries["industry"])
}
