package retrieval

import (
	"context"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/catalog"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/rank"
	"go.uber.org/zap"
)

// defaultMaxAttempts bounds the retry loop.
const defaultMaxAttempts = 3

// QueryExtractor turns a conversation into a structured query. It cannot
// fail: implementations fall back to a locally built query.
type QueryExtractor interface {
	Extract(ctx context.Context, messages []models.Message) models.StructuredQuery
}

// Service drives extraction and scoring with a bounded-retry policy. It
// always produces a ranking: when every attempt fails at the scoring layer it
// falls back to the catalog's natural row order instead of surfacing an
// error.
type Service struct {
	extractor   QueryExtractor
	scorer      rank.RelevanceScorer
	store       *catalog.Store
	maxAttempts int
	logger      *zap.Logger
}

// NewService creates a new retrieval orchestrator. maxAttempts falls back to
// the default when non-positive.
func NewService(extractor QueryExtractor, scorer rank.RelevanceScorer, store *catalog.Store, maxAttempts int, logger *zap.Logger) *Service {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Service{
		extractor:   extractor,
		scorer:      scorer,
		store:       store,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Result is the outcome of one retrieval run.
type Result struct {
	// Query is the structured query of the last attempt
	Query models.StructuredQuery

	// Ranked is the scored course list, non-increasing by score
	Ranked models.RankedResult

	// Attempts is the number of attempts actually made
	Attempts int

	// ColdFallback is true when every attempt failed and the ranking is the
	// catalog's natural row order
	ColdFallback bool
}

// Retrieve runs the extract→score loop. Each attempt re-invokes the
// extractor, scores the catalog and evaluates the acceptance policy; the loop
// terminates within the attempt ceiling no matter what.
func (s *Service) Retrieve(ctx context.Context, messages []models.Message) *Result {
	snap := s.store.Snapshot()

	var lastQuery models.StructuredQuery
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		query := s.extractor.Extract(ctx, messages)
		lastQuery = query

		ranked, err := s.scorer.Score(ctx, query, snap)
		if err != nil {
			s.logger.Warn("scoring attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", s.maxAttempts),
				zap.String("scorer", s.scorer.Name()),
				zap.Error(err))
			continue
		}

		if s.accept(ranked, attempt) {
			s.logger.Info("retrieval complete",
				zap.Int("attempt", attempt),
				zap.Int("results", len(ranked)),
				zap.Strings("query_fields", query.PopulatedFields()))
			return &Result{Query: query, Ranked: ranked, Attempts: attempt}
		}
	}

	// Cold fallback: identity ranking over the catalog. The caller still
	// gets a usable slate even with the scoring stack fully down.
	s.logger.Error("all scoring attempts failed, falling back to catalog order",
		zap.Int("attempts", s.maxAttempts))
	return &Result{
		Query:        lastQuery,
		Ranked:       snap.Identity(),
		Attempts:     s.maxAttempts,
		ColdFallback: true,
	}
}

// accept is the acceptance policy hook. It currently accepts any successful
// scoring pass on the first attempt; the loop shape stays in place so a
// quality gate (e.g. minimum top score) can reject and retry later.
func (s *Service) accept(models.RankedResult, int) bool {
	return true
}
