package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"go.uber.org/zap"
)

// Snapshot is an immutable (catalog, embedding-index) pair. Both parts are
// built together and row order in the index matches Courses exactly, so a
// snapshot can be read concurrently without synchronization.
type Snapshot struct {
	Courses    []models.Course
	Embeddings *FieldEmbeddingIndex
}

// Identity returns the catalog in natural row order with zero scores. This is
// the cold-fallback ranking used when scoring is unavailable.
func (s *Snapshot) Identity() models.RankedResult {
	result := make(models.RankedResult, len(s.Courses))
	for i := range s.Courses {
		result[i] = models.ScoredCourse{Course: &s.Courses[i], Score: 0}
	}
	return result
}

// FindCourse returns the course with the given id, or nil when absent.
func (s *Snapshot) FindCourse(id string) *models.Course {
	for i := range s.Courses {
		if s.Courses[i].ID == id {
			return &s.Courses[i]
		}
	}
	return nil
}

// CourseRepository loads catalog rows from storage.
type CourseRepository interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
}

// Store holds the current snapshot and swaps it atomically on refresh, so
// in-flight requests never observe a catalog whose embedding index belongs to
// a different crawl.
type Store struct {
	current atomic.Pointer[Snapshot]
	logger  *zap.Logger
}

// NewStore creates a store seeded with an initial snapshot.
func NewStore(initial *Snapshot, logger *zap.Logger) (*Store, error) {
	if err := validateSnapshot(initial); err != nil {
		return nil, err
	}
	s := &Store{logger: logger}
	s.current.Store(initial)
	return s, nil
}

// Snapshot returns the current (catalog, index) pair. Callers keep using the
// returned snapshot for the whole request even if a swap happens meanwhile.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Swap replaces the current snapshot with a freshly loaded one. The external
// catalog refresher calls this after a successful crawl.
func (s *Store) Swap(next *Snapshot) error {
	if err := validateSnapshot(next); err != nil {
		return err
	}
	s.current.Store(next)
	s.logger.Info("catalog snapshot swapped",
		zap.Int("courses", len(next.Courses)),
		zap.Int("embedding_rows", next.Embeddings.Rows()))
	return nil
}

// validateSnapshot enforces the row-alignment invariant between catalog and
// embedding index.
func validateSnapshot(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if snap.Embeddings == nil {
		return fmt.Errorf("snapshot has no embedding index")
	}
	if rows := snap.Embeddings.Rows(); rows != len(snap.Courses) {
		return fmt.Errorf("embedding index has %d rows for %d courses", rows, len(snap.Courses))
	}
	return nil
}

// Load builds the initial snapshot from the course repository and the
// precomputed embedding file. A failure here is fatal: the service must not
// serve requests without a catalog.
func Load(ctx context.Context, repo CourseRepository, embeddingPath string, logger *zap.Logger) (*Store, error) {
	courses, err := repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load course catalog: %w", err)
	}

	index, err := LoadEmbeddingIndex(embeddingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding index: %w", err)
	}

	store, err := NewStore(&Snapshot{Courses: courses, Embeddings: index}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("catalog loaded",
		zap.Int("courses", len(courses)),
		zap.String("embedding_model", index.Model),
		zap.Int("embedding_dimension", index.Dimension))

	return store, nil
}
