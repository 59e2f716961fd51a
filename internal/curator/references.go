package curator

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
)

// selectReferences picks the top-scoring curated documents across all
// categories as the report's reference list. Failure here degrades to empty
// references, never aborts curation.
func (c *Curator) selectReferences(state *model.ResearchState) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("curator: reference selection failed",
				zap.String("job_id", state.JobID),
				zap.Any("panic", r),
			)
			state.References = []string{}
			state.ReferenceTitles = map[string]string{}
		}
	}()

	type ref struct {
		url   string
		title string
		score float64
	}

	// A document can appear in more than one curated category; each URL is
	// referenced once.
	var candidates []ref
	seen := make(map[string]bool)
	for _, category := range model.Categories {
		state.CuratedData(category).Each(func(key string, doc *model.Document) {
			if seen[key] {
				return
			}
			seen[key] = true
			score := 0.0
			if doc.Evaluation != nil {
				score = doc.Evaluation.OverallScore
			}
			candidates = append(candidates, ref{url: key, title: doc.Title, score: score})
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxReferences {
		candidates = candidates[:maxReferences]
	}

	urls := make([]string, 0, len(candidates))
	titles := make(map[string]string, len(candidates))
	for _, r := range candidates {
		urls = append(urls, r.url)
		if r.title != "" {
			titles[r.url] = r.title
		}
	}

	state.References = urls
	state.ReferenceTitles = titles
	zap.L().Info("curator: selected references",
		zap.String("job_id", state.JobID),
		zap.Int("count", len(urls)),
	)
}
