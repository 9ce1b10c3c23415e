package rank

import (
	"context"
	"strconv"
	"strings"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/catalog"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/providers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize   = 256
	defaultMaxInFlight = 4
)

// CrossEncoderScorer scores every (query, course) pair jointly through a
// pairwise reranking model. More accurate than the bi-encoder but every
// request pays one model call per batch of courses, so batches are dispatched
// concurrently with a cap on in-flight calls.
type CrossEncoderScorer struct {
	reranker    providers.RerankClient
	batchSize   int
	maxInFlight int
	logger      *zap.Logger
}

// NewCrossEncoderScorer creates a new cross-encoder scorer. batchSize and
// maxInFlight fall back to defaults when non-positive.
func NewCrossEncoderScorer(reranker providers.RerankClient, batchSize, maxInFlight int, logger *zap.Logger) *CrossEncoderScorer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	return &CrossEncoderScorer{
		reranker:    reranker,
		batchSize:   batchSize,
		maxInFlight: maxInFlight,
		logger:      logger,
	}
}

// Name identifies the scoring strategy
func (s *CrossEncoderScorer) Name() string {
	return "cross_encoder"
}

// Score concatenates the populated query fields into one query string, each
// course's key textual fields into one document string, and scores all pairs
// in fixed-size batches.
func (s *CrossEncoderScorer) Score(ctx context.Context, query models.StructuredQuery, snap *catalog.Snapshot) (models.RankedResult, error) {
	if len(snap.Courses) == 0 {
		return models.RankedResult{}, nil
	}

	combinedQuery := combineQuery(query)

	docs := make([]string, len(snap.Courses))
	for i := range snap.Courses {
		docs[i] = combineCourseText(&snap.Courses[i])
	}

	scores := make([]float64, len(docs))

	// Batches write into disjoint slices of scores, so no locking is needed.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxInFlight)
	for start := 0; start < len(docs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		start, end := start, end
		g.Go(func() error {
			batchScores, err := s.reranker.Rerank(gctx, combinedQuery, docs[start:end])
			if err != nil {
				return err
			}
			copy(scores[start:end], batchScores)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, services.WrapError(services.ErrorTypeScoring, "pairwise scoring failed", err)
	}

	s.logger.Debug("cross-encoder scoring complete",
		zap.Int("courses", len(docs)),
		zap.Int("batch_size", s.batchSize))

	result := make(models.RankedResult, len(snap.Courses))
	for i := range snap.Courses {
		result[i] = models.ScoredCourse{Course: &snap.Courses[i], Score: scores[i]}
	}
	sortByScore(result)
	return result, nil
}

// combineQuery joins every populated query field value into one query string.
func combineQuery(query models.StructuredQuery) string {
	var parts []string
	for _, v := range []string{query.Teacher, query.Keywords, query.Department, query.Program} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if query.Grade != nil {
		parts = append(parts, strconv.Itoa(*query.Grade))
	}
	if query.DeliveryMode != "" {
		parts = append(parts, string(query.DeliveryMode))
	}
	return strings.Join(parts, " ")
}

// combineCourseText joins a course's key textual fields into one document.
func combineCourseText(c *models.Course) string {
	return strings.Join([]string{
		c.Name,
		c.Teacher,
		c.Description,
		c.Department,
		c.Objectives,
		c.Syllabus,
	}, " ")
}
