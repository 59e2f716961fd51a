package curator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-report/internal/model"
)

func curatedDoc(url, title string, score float64) *model.Document {
	return &model.Document{
		URL:        url,
		Title:      title,
		Score:      score,
		Evaluation: &model.Evaluation{OverallScore: score},
	}
}

func TestSelectReferences_TopTenAcrossCategories(t *testing.T) {
	c := New(nil)
	state := testState(t)

	news := model.NewDocumentSet()
	for i := 0; i < 8; i++ {
		url := fmt.Sprintf("https://news%d.com", i)
		news.Put(url, curatedDoc(url, fmt.Sprintf("News %d", i), 0.5+float64(i)*0.01))
	}
	state.CuratedNewsData = news

	fin := model.NewDocumentSet()
	for i := 0; i < 5; i++ {
		url := fmt.Sprintf("https://fin%d.com", i)
		fin.Put(url, curatedDoc(url, fmt.Sprintf("Fin %d", i), 0.9-float64(i)*0.01))
	}
	state.CuratedFinancialData = fin

	c.selectReferences(state)

	require.Len(t, state.References, 10)
	// Financial documents score highest and lead the list.
	assert.Equal(t, "https://fin0.com", state.References[0])
	assert.Equal(t, "Fin 0", state.ReferenceTitles["https://fin0.com"])
}

func TestSelectReferences_FewerThanCap(t *testing.T) {
	c := New(nil)
	state := testState(t)
	state.CuratedNewsData = docSet(curatedDoc("https://only.com", "Only", 0.6))

	c.selectReferences(state)

	assert.Equal(t, []string{"https://only.com"}, state.References)
}

func TestSelectReferences_UntitledDocsOmittedFromTitles(t *testing.T) {
	c := New(nil)
	state := testState(t)
	state.CuratedNewsData = docSet(curatedDoc("https://untitled.com", "", 0.6))

	c.selectReferences(state)

	require.Len(t, state.References, 1)
	_, ok := state.ReferenceTitles["https://untitled.com"]
	assert.False(t, ok)
}

func TestSelectReferences_DeduplicatesAcrossCategories(t *testing.T) {
	c := New(nil)
	state := testState(t)
	state.CuratedNewsData = docSet(curatedDoc("https://shared.com", "Shared", 0.8))
	state.CuratedFinancialData = docSet(curatedDoc("https://shared.com", "Shared", 0.8))

	c.selectReferences(state)

	assert.Equal(t, []string{"https://shared.com"}, state.References)
}

func TestSelectReferences_NoCuratedData(t *testing.T) {
	c := New(nil)
	state := testState(t)

	c.selectReferences(state)

	assert.Empty(t, state.References)
	assert.Empty(t, state.ReferenceTitles)
}
