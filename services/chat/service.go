package chat

import (
	"context"
	"time"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/catalog"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/retrieval"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request is the service-level chat request.
type Request struct {
	// Messages is the ordered conversation
	Messages []models.Message

	// Semesters is the semester label the client is browsing (e.g. "1131")
	Semesters string

	// SelectedCourseIDs are the courses the user has already picked
	SelectedCourseIDs []string
}

// Response is the service-level chat response.
type Response struct {
	// Answer is the synthesized natural-language recommendation
	Answer string

	// RankedCourseIDs is the full ranked course id list
	RankedCourseIDs []string
}

// Retriever produces a ranked course slate for a conversation.
type Retriever interface {
	Retrieve(ctx context.Context, messages []models.Message) *retrieval.Result
}

// Synthesizer renders the final user-visible answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, query models.StructuredQuery, ranked models.RankedResult, selected []*models.Course) string
}

// Service orchestrates the complete chat pipeline: retrieval, selected-course
// resolution, and answer synthesis.
type Service struct {
	retriever   Retriever
	synthesizer Synthesizer
	store       *catalog.Store
	logger      *zap.Logger
}

// NewService creates a new chat service with all dependencies
func NewService(retriever Retriever, synthesizer Synthesizer, store *catalog.Store, logger *zap.Logger) *Service {
	return &Service{
		retriever:   retriever,
		synthesizer: synthesizer,
		store:       store,
		logger:      logger,
	}
}

// ProcessChat runs the pipeline for one conversation.
func (s *Service) ProcessChat(ctx context.Context, req *Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, services.ErrEmptyConversation
	}

	chatID := uuid.New()
	startTime := time.Now()

	s.logger.Info("starting chat pipeline",
		zap.String("chat_id", chatID.String()),
		zap.Int("messages", len(req.Messages)),
		zap.String("semesters", req.Semesters),
		zap.Int("selected_courses", len(req.SelectedCourseIDs)))

	// Step 1: Retrieve a ranked slate
	s.logger.Debug("step 1: retrieving courses", zap.String("chat_id", chatID.String()))
	result := s.retriever.Retrieve(ctx, req.Messages)

	// Step 2: Resolve selected courses for prompt context
	s.logger.Debug("step 2: resolving selected courses", zap.String("chat_id", chatID.String()))
	selected := s.resolveSelected(req.SelectedCourseIDs)

	// Step 3: Synthesize the answer
	s.logger.Debug("step 3: synthesizing answer", zap.String("chat_id", chatID.String()))
	answer := s.synthesizer.Synthesize(ctx, result.Query, result.Ranked, selected)

	s.logger.Info("chat pipeline completed",
		zap.String("chat_id", chatID.String()),
		zap.Int("ranked_courses", len(result.Ranked)),
		zap.Bool("cold_fallback", result.ColdFallback),
		zap.Int("latency_ms", int(time.Since(startTime).Milliseconds())))

	return &Response{
		Answer:          answer,
		RankedCourseIDs: result.Ranked.CourseIDs(),
	}, nil
}

// resolveSelected looks up the user's selected courses in the catalog.
// Unknown ids are skipped; the client may be ahead of the last crawl.
func (s *Service) resolveSelected(ids []string) []*models.Course {
	if len(ids) == 0 {
		return nil
	}
	snap := s.store.Snapshot()
	var selected []*models.Course
	for _, id := range ids {
		if c := snap.FindCourse(id); c != nil {
			selected = append(selected, c)
		} else {
			s.logger.Debug("selected course not in catalog", zap.String("course_id", id))
		}
	}
	return selected
}
