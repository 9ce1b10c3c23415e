package rank

import (
	"context"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/catalog"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/providers"
	"go.uber.org/zap"
)

// fieldTarget maps a query field onto one catalog field with a weight.
type fieldTarget struct {
	field  string
	weight float64
}

// queryFieldTargets is the exhaustive query-field → catalog-field mapping.
// Singly-mapped fields carry weight 1.0; the keywords sub-weights sum to 1.0
// so the keywords contribution stays bounded by a single cosine similarity.
var queryFieldTargets = map[string][]fieldTarget{
	"teacher":    {{field: "teacher", weight: 1.0}},
	"department": {{field: "department", weight: 1.0}},
	"program":    {{field: "tags", weight: 1.0}},
	"keywords": {
		{field: "name", weight: 0.4},
		{field: "description", weight: 0.2},
		{field: "objectives", weight: 0.15},
		{field: "syllabus", weight: 0.1},
		{field: "tags", weight: 0.15},
	},
}

// FieldWeightedBiEncoderScorer scores courses by comparing one query-field
// embedding against the precomputed per-field catalog embeddings. Only the
// query text is embedded at request time; everything else is a cosine over
// vectors computed offline, so a full catalog scan stays cheap.
type FieldWeightedBiEncoderScorer struct {
	embedder providers.EmbeddingClient
	logger   *zap.Logger
}

// NewFieldWeightedBiEncoderScorer creates a new bi-encoder scorer
func NewFieldWeightedBiEncoderScorer(embedder providers.EmbeddingClient, logger *zap.Logger) *FieldWeightedBiEncoderScorer {
	return &FieldWeightedBiEncoderScorer{
		embedder: embedder,
		logger:   logger,
	}
}

// Name identifies the scoring strategy
func (s *FieldWeightedBiEncoderScorer) Name() string {
	return "field_weighted_bi_encoder"
}

// Score applies the grade hard filter, then accumulates weighted cosine
// similarities for every populated soft query field. Accumulation is
// commutative, so the result does not depend on field processing order.
func (s *FieldWeightedBiEncoderScorer) Score(ctx context.Context, query models.StructuredQuery, snap *catalog.Snapshot) (models.RankedResult, error) {
	// Hard filter: grade must match exactly. An empty remainder is a valid
	// result, not an error.
	kept := make([]int, 0, len(snap.Courses))
	for i := range snap.Courses {
		if query.Grade != nil && snap.Courses[i].Grade != *query.Grade {
			continue
		}
		kept = append(kept, i)
	}
	if len(kept) == 0 {
		s.logger.Debug("grade filter excluded every course", zap.Intp("grade", query.Grade))
		return models.RankedResult{}, nil
	}

	scores := make([]float64, len(kept))

	for _, qf := range []struct {
		name  string
		value string
	}{
		{"teacher", query.Teacher},
		{"keywords", query.Keywords},
		{"department", query.Department},
		{"program", query.Program},
	} {
		if qf.value == "" {
			continue
		}
		if err := s.accumulate(ctx, qf.name, qf.value, snap, kept, scores); err != nil {
			return nil, err
		}
	}

	if query.DeliveryMode != "" {
		// No catalog field carries delivery mode; diagnostic only.
		s.logger.Debug("unmapped query field ignored",
			zap.String("field", "deliveryMode"),
			zap.String("value", string(query.DeliveryMode)))
	}

	result := make(models.RankedResult, len(kept))
	for j, rowIdx := range kept {
		result[j] = models.ScoredCourse{Course: &snap.Courses[rowIdx], Score: scores[j]}
	}
	sortByScore(result)
	return result, nil
}

// accumulate embeds the query-field text once and adds the weighted cosine
// similarity against each mapped catalog field into the running totals.
func (s *FieldWeightedBiEncoderScorer) accumulate(ctx context.Context, queryField, value string, snap *catalog.Snapshot, kept []int, scores []float64) error {
	targets := queryFieldTargets[queryField]

	queryVec, err := s.embedder.Embed(ctx, value)
	if err != nil {
		return services.WrapError(services.ErrorTypeScoring, "failed to embed query field "+queryField, err)
	}

	for _, target := range targets {
		fieldVecs, ok := snap.Embeddings.Vectors(target.field)
		if !ok {
			s.logger.Warn("catalog field has no precomputed embeddings, skipping",
				zap.String("query_field", queryField),
				zap.String("catalog_field", target.field))
			continue
		}
		for j, rowIdx := range kept {
			scores[j] += target.weight * cosineSimilarity(queryVec, fieldVecs[rowIdx])
		}
	}

	return nil
}
