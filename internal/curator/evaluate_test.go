package curator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/internal/progress"
)

func testState(t *testing.T) *model.ResearchState {
	t.Helper()
	return model.NewResearchState("job-1", "Acme Corp", "manufacturing")
}

func TestEvaluateDocuments_ThresholdFilter(t *testing.T) {
	rec := &progress.Recorder{}
	c := New(rec)
	state := testState(t)

	docs := []keyedDoc{
		{key: "https://a.com", doc: &model.Document{Title: "A", URL: "https://a.com", Score: 0.9}},
		{key: "https://b.com", doc: &model.Document{Title: "B", URL: "https://b.com", Score: 0.39}},
		{key: "https://c.com", doc: &model.Document{Title: "C", URL: "https://c.com", Score: 0.4}},
		{key: "https://d.com", doc: &model.Document{Title: "D", URL: "https://d.com"}},
		{key: "https://e.com", doc: &model.Document{Title: "E", URL: "https://e.com", Score: "garbage"}},
		{key: "https://f.com", doc: &model.Document{Title: "F", URL: "https://f.com", Score: math.NaN()}},
		{key: "https://g.com", doc: &model.Document{Title: "G", URL: "https://g.com", Score: "NaN"}},
	}

	kept := c.evaluateDocuments(state, docs)

	require.Len(t, kept, 2)
	// Descending score order.
	assert.Equal(t, "A", kept[0].doc.Title)
	assert.Equal(t, "C", kept[1].doc.Title)

	// Exactly-at-threshold documents are kept.
	assert.InDelta(t, 0.4, kept[1].doc.Evaluation.OverallScore, 1e-9)

	// One document_kept notification per survivor.
	assert.Len(t, rec.ByStatus(progress.StatusDocumentKept), 2)
}

func TestEvaluateDocuments_AttachesEvaluation(t *testing.T) {
	c := New(nil)
	state := testState(t)

	docs := []keyedDoc{
		{key: "https://a.com", doc: &model.Document{Title: "A", Query: "acme revenue", Score: 0.75}},
	}

	kept := c.evaluateDocuments(state, docs)
	require.Len(t, kept, 1)

	eval := kept[0].doc.Evaluation
	require.NotNil(t, eval)
	assert.InDelta(t, 0.75, eval.OverallScore, 1e-9)
	assert.Equal(t, "acme revenue", eval.Query)
	assert.Contains(t, eval.RelevanceReason, "0.7500")
	assert.Contains(t, eval.RelevanceReason, "0.4")
}

func TestEvaluateDocuments_StableTieOrder(t *testing.T) {
	c := New(nil)
	state := testState(t)

	docs := []keyedDoc{
		{key: "https://a.com", doc: &model.Document{Title: "A", Score: 0.5}},
		{key: "https://b.com", doc: &model.Document{Title: "B", Score: 0.5}},
		{key: "https://c.com", doc: &model.Document{Title: "C", Score: 0.5}},
	}

	kept := c.evaluateDocuments(state, docs)
	require.Len(t, kept, 3)
	assert.Equal(t, "A", kept[0].doc.Title)
	assert.Equal(t, "B", kept[1].doc.Title)
	assert.Equal(t, "C", kept[2].doc.Title)
}

func TestEvaluateDocuments_Empty(t *testing.T) {
	c := New(nil)
	assert.Nil(t, c.evaluateDocuments(testState(t), nil))
}
