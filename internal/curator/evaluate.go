package curator

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/internal/progress"
)

// keyedDoc pairs a document with its normalized-URL key so evaluation never
// has to re-associate documents with keys by position.
type keyedDoc struct {
	key string
	doc *model.Document
}

// evaluateDocuments scores one category's deduplicated documents against the
// relevance threshold. Documents with a missing, non-numeric, or
// below-threshold score are dropped individually; one bad document never
// takes the batch down. Survivors get an Evaluation record and come back
// sorted by score descending, ties keeping encounter order.
func (c *Curator) evaluateDocuments(state *model.ResearchState, docs []keyedDoc) []keyedDoc {
	log := zap.L().With(zap.String("job_id", state.JobID))

	c.notifier.Notify(state.JobID, progress.StatusProcessing, "Evaluating documents", map[string]any{
		"step": "Curation",
	})

	if len(docs) == 0 {
		log.Warn("curator: no documents provided for evaluation")
		return nil
	}

	log.Info("curator: evaluating documents", zap.Int("count", len(docs)))

	kept := make([]keyedDoc, 0, len(docs))
	for _, kd := range docs {
		score, ok := kd.doc.RelevanceScore()
		if !ok {
			log.Warn("curator: document score missing or non-numeric",
				zap.String("title", kd.doc.Title),
				zap.String("url", kd.doc.URL),
			)
			continue
		}
		// Positive comparison so a NaN score is dropped, not kept.
		if !(score >= c.threshold) {
			log.Debug("curator: document below threshold",
				zap.Float64("score", score),
				zap.String("title", kd.doc.Title),
			)
			continue
		}

		kd.doc.Evaluation = &model.Evaluation{
			OverallScore:    score,
			Query:           kd.doc.Query,
			RelevanceReason: fmt.Sprintf("Score %.4f meets threshold %.1f", score, c.threshold),
		}
		kept = append(kept, kd)

		c.notifier.Notify(state.JobID, progress.StatusDocumentKept,
			fmt.Sprintf("Kept document: %s", titleOrDefault(kd.doc)),
			map[string]any{
				"step":     "Curation",
				"doc_type": string(kd.doc.DocType),
				"title":    titleOrDefault(kd.doc),
				"score":    score,
				"url":      kd.doc.URL,
			})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].doc.Evaluation.OverallScore > kept[j].doc.Evaluation.OverallScore
	})

	log.Info("curator: evaluation complete", zap.Int("kept", len(kept)))
	return kept
}

func titleOrDefault(d *model.Document) string {
	if d.Title == "" {
		return "No title"
	}
	return d.Title
}
