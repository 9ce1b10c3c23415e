package rank

import (
	"context"
	"sort"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/catalog"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
)

// RelevanceScorer ranks the catalog against a structured query. The two
// implementations trade accuracy for latency: the field-weighted bi-encoder
// works off precomputed embeddings, the cross-encoder scores every pair
// through a model call. The implementation is chosen once at startup and
// injected into the retrieval orchestrator.
type RelevanceScorer interface {
	// Name identifies the scoring strategy in logs.
	Name() string

	// Score returns every eligible course ordered by descending relevance.
	// An empty result (everything excluded by hard filters) is valid.
	Score(ctx context.Context, query models.StructuredQuery, snap *catalog.Snapshot) (models.RankedResult, error)
}

// sortByScore orders a result non-increasing by score. The sort is stable so
// ties keep the original catalog row order, which makes rankings
// deterministic and re-sorting idempotent.
func sortByScore(result models.RankedResult) {
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
}
