// Package curator filters, ranks, and caps researched documents per
// category, maintains the validated employee-count fact, and streams
// enrichment progress to observers. A job never hard-fails in here: worst
// case it reports zero curated documents and a zero-valued snapshot.
package curator

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/internal/progress"
)

const (
	// relevanceThreshold is the fixed cutoff below which a document is
	// discarded.
	relevanceThreshold = 0.4
	// maxPerCategory caps each curated category set.
	maxPerCategory = 30
	// maxReferences caps the reference list selected for the report.
	maxReferences = 10
)

// Curator runs the curation pass over a job's research state.
type Curator struct {
	notifier  progress.Notifier
	threshold float64
	maxDocs   int
}

// New creates a Curator. A nil notifier disables progress updates.
func New(notifier progress.Notifier) *Curator {
	if notifier == nil {
		notifier = progress.Nop{}
	}
	zap.L().Info("curator: initialized", zap.Float64("relevance_threshold", relevanceThreshold))
	return &Curator{
		notifier:  notifier,
		threshold: relevanceThreshold,
		maxDocs:   maxPerCategory,
	}
}

// Run is the curation entry point. Any failure escaping the curation pass is
// caught here: the employee-count fields are defaulted if absent, a
// best-effort enrichment snapshot is attached, and the (possibly partial)
// state is returned rather than an error.
func (c *Curator) Run(state *model.ResearchState) *model.ResearchState {
	err := c.curate(state)
	if err == nil {
		return state
	}

	zap.L().Error("curator: critical error, patching state",
		zap.String("job_id", state.JobID),
		zap.Error(err),
	)
	if state.EmployeeCount == nil {
		state.EmployeeCount = make(map[string]int)
		state.CompanyCount = 0
	}
	state.EnrichmentCounts = c.BuildEnrichmentCounts(state)
	return state
}

// curate performs one full curation pass: preserve critical state, process
// each category, restore critical state, select references, rebuild the
// enrichment snapshot, and emit the closing checkpoints.
func (c *Curator) curate(state *model.ResearchState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("curator: panic during curation: %v", r)
		}
	}()

	log := zap.L().With(zap.String("job_id", state.JobID), zap.String("company", state.Company))
	log.Info("curator: starting curation")

	preserved := preserveCriticalState(state)

	c.notifier.Notify(state.JobID, progress.StatusProcessing,
		fmt.Sprintf("Starting document curation for %s", state.Company),
		map[string]any{
			"step":       "Curation",
			"company":    state.Company,
			"doc_counts": zeroDocCounts(),
		})

	msg := []string{fmt.Sprintf("Curating research data for %s", state.Company)}
	docCounts := make(model.DocCounts, len(model.Categories))

	for _, category := range model.Categories {
		raw := state.RawData(category)
		if raw.Len() == 0 {
			log.Info("curator: no data for category", zap.String("category", string(category)))
			continue
		}

		msg = append(msg, fmt.Sprintf("%s: found %d documents", category, raw.Len()))

		count, catErr := c.curateCategory(state, category, raw)
		docCounts[category] = count
		if catErr != nil {
			// One category degrading must not abort the others.
			log.Error("curator: category failed",
				zap.String("category", string(category)),
				zap.Error(catErr),
			)
			msg = append(msg, fmt.Sprintf("%s: curation failed, kept 0 documents", category))
			continue
		}

		if count.Kept > 0 {
			msg = append(msg, fmt.Sprintf("%s: kept %d relevant documents", category, count.Kept))
		} else {
			msg = append(msg, fmt.Sprintf("%s: no documents met relevance threshold", category))
		}
	}

	restoreCriticalState(state, preserved)

	c.selectReferences(state)

	snapshot := c.BuildEnrichmentCounts(state)
	state.EnrichmentCounts = snapshot

	state.AppendMessage(strings.Join(msg, "\n"))

	c.notifier.Notify(state.JobID, progress.StatusCurationComplete, "Document curation complete",
		map[string]any{
			"step":             "Curation Complete",
			"enrichmentCounts": snapshot,
			"doc_counts":       finalDocCounts(docCounts),
			"employeeCount": map[string]any{
				"enriched":   snapshot.EmployeeCount.Enriched,
				"total":      snapshot.EmployeeCount.Total,
				"data":       state.EmployeeCount,
				"count":      state.CompanyCount,
				"hasData":    snapshot.EmployeeCount.HasData,
				"totalCount": snapshot.EmployeeCount.TotalCount,
			},
		})

	c.notifier.Notify(state.JobID, progress.StatusEnrichmentUpdate, "Enrichment counts updated",
		map[string]any{
			"step":             "Enrichment Update",
			"enrichmentCounts": snapshot,
		})

	log.Info("curator: curation complete", zap.Int("total_kept", totalKept(docCounts)))
	return nil
}

// curateCategory deduplicates, evaluates, caps, and stores one category.
// A panic inside the category degrades it to kept:0 without touching the
// others.
func (c *Curator) curateCategory(state *model.ResearchState, category model.DocType, raw *model.DocumentSet) (count model.DocCount, err error) {
	defer func() {
		if r := recover(); r != nil {
			count = model.DocCount{Initial: count.Initial, Kept: 0}
			err = eris.Errorf("curator: panic curating %s: %v", category, r)
		}
	}()

	log := zap.L().With(zap.String("job_id", state.JobID), zap.String("category", string(category)))

	// Report the raw count even if the dedup walk below blows up.
	count.Initial = raw.Len()

	// Deduplicate by normalized URL; first document seen under a key wins.
	// A malformed URL skips its document, not the category.
	unique := model.NewDocumentSet()
	raw.Each(func(key string, doc *model.Document) {
		clean, normErr := NormalizeURL(key)
		if normErr != nil {
			log.Warn("curator: skipping document with bad url",
				zap.String("url", key),
				zap.Error(normErr),
			)
			return
		}
		doc.URL = clean
		doc.DocType = category
		unique.Put(clean, doc)
	})

	count.Initial = unique.Len()

	c.notifier.Notify(state.JobID, progress.StatusCategoryStart,
		fmt.Sprintf("Processing %s documents", category),
		map[string]any{
			"step":          "Curation",
			"doc_type":      string(category),
			"initial_count": unique.Len(),
		})

	docs := make([]keyedDoc, 0, unique.Len())
	unique.Each(func(key string, doc *model.Document) {
		docs = append(docs, keyedDoc{key: key, doc: doc})
	})

	evaluated := c.evaluateDocuments(state, docs)

	if len(evaluated) > c.maxDocs {
		log.Info("curator: capping category",
			zap.Int("evaluated", len(evaluated)),
			zap.Int("cap", c.maxDocs),
		)
		evaluated = evaluated[:c.maxDocs]
	}

	curated := model.NewDocumentSet()
	for _, kd := range evaluated {
		curated.Put(kd.key, kd.doc)
	}
	state.SetCuratedData(category, curated)

	count.Kept = curated.Len()
	return count, nil
}

func zeroDocCounts() map[string]model.DocCount {
	out := make(map[string]model.DocCount, len(model.Categories))
	for _, cat := range model.Categories {
		out[string(cat)] = model.DocCount{}
	}
	return out
}

func finalDocCounts(counts model.DocCounts) map[string]model.DocCount {
	out := zeroDocCounts()
	for cat, dc := range counts {
		out[string(cat)] = dc
	}
	return out
}

func totalKept(counts model.DocCounts) int {
	total := 0
	for _, dc := range counts {
		total += dc.Kept
	}
	return total
}
