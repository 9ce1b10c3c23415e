package rank

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/catalog"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReranker scores documents by the teacher name they contain and records
// batch sizes. Safe for concurrent batches.
type fakeReranker struct {
	mu         sync.Mutex
	scoreFor   map[string]float64
	batchSizes []int
	queries    []string
	err        error
}

func (f *fakeReranker) Name() string { return "fake" }

func (f *fakeReranker) Rerank(_ context.Context, query string, documents []string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batchSizes = append(f.batchSizes, len(documents))
	f.queries = append(f.queries, query)

	scores := make([]float64, len(documents))
	for i, doc := range documents {
		for needle, score := range f.scoreFor {
			if strings.Contains(doc, needle) {
				scores[i] = score
			}
		}
	}
	return scores, nil
}

func crossEncoderSnapshot(n int) *catalog.Snapshot {
	teachers := []string{"羅珮綺", "王五", "李四", "張三", "陳六"}
	courses := make([]models.Course, n)
	vecs := make([][]float32, n)
	for i := range courses {
		courses[i] = models.Course{
			ID:      string(rune('A' + i)),
			Name:    "課程",
			Teacher: teachers[i%len(teachers)],
		}
		vecs[i] = []float32{1}
	}
	return &catalog.Snapshot{
		Courses:    courses,
		Embeddings: &catalog.FieldEmbeddingIndex{Dimension: 1, Fields: map[string][][]float32{"name": vecs}},
	}
}

func TestCrossEncoderRanksByPairScore(t *testing.T) {
	reranker := &fakeReranker{scoreFor: map[string]float64{
		"羅珮綺": 0.95,
		"王五":  0.10,
		"李四":  0.40,
	}}
	scorer := NewCrossEncoderScorer(reranker, 0, 0, zap.NewNop())

	result, err := scorer.Score(context.Background(), models.StructuredQuery{Teacher: "羅珮綺"}, crossEncoderSnapshot(3))
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, []string{"A", "C", "B"}, result.CourseIDs())
	assert.InDelta(t, 0.95, result[0].Score, 1e-9)
}

func TestCrossEncoderBatching(t *testing.T) {
	reranker := &fakeReranker{scoreFor: map[string]float64{}}
	scorer := NewCrossEncoderScorer(reranker, 2, 1, zap.NewNop())

	_, err := scorer.Score(context.Background(), models.StructuredQuery{Keywords: "課程"}, crossEncoderSnapshot(5))
	require.NoError(t, err)

	// 5 documents in batches of 2: sizes 2, 2, 1 in some dispatch order.
	assert.Len(t, reranker.batchSizes, 3)
	total := 0
	for _, size := range reranker.batchSizes {
		assert.LessOrEqual(t, size, 2)
		total += size
	}
	assert.Equal(t, 5, total)
}

func TestCrossEncoderCombinedQuery(t *testing.T) {
	grade := 4
	query := models.StructuredQuery{
		Teacher:      "羅珮綺",
		Keywords:     "機器學習",
		Grade:        &grade,
		DeliveryMode: models.DeliveryOnline,
	}

	assert.Equal(t, "羅珮綺 機器學習 4 online", combineQuery(query))
	assert.Equal(t, "", combineQuery(models.StructuredQuery{}))
}

func TestCrossEncoderCombinedDocument(t *testing.T) {
	doc := combineCourseText(&models.Course{
		Name:        "資訊管理概論",
		Teacher:     "李四",
		Description: "本課程介紹資訊管理的基本概念",
		Department:  "資管",
	})

	assert.Contains(t, doc, "資訊管理概論")
	assert.Contains(t, doc, "李四")
	assert.Contains(t, doc, "資管")
}

func TestCrossEncoderServiceFailure(t *testing.T) {
	reranker := &fakeReranker{err: errors.New("rerank service down")}
	scorer := NewCrossEncoderScorer(reranker, 2, 2, zap.NewNop())

	_, err := scorer.Score(context.Background(), models.StructuredQuery{Keywords: "課程"}, crossEncoderSnapshot(5))
	require.Error(t, err)
	assert.True(t, services.IsScoringError(err))
}

func TestCrossEncoderEmptyCatalog(t *testing.T) {
	scorer := NewCrossEncoderScorer(&fakeReranker{}, 0, 0, zap.NewNop())

	result, err := scorer.Score(context.Background(), models.StructuredQuery{Keywords: "課程"}, &catalog.Snapshot{
		Embeddings: &catalog.FieldEmbeddingIndex{Dimension: 1, Fields: map[string][][]float32{}},
	})
	require.NoError(t, err)
	assert.Empty(t, result)
}
