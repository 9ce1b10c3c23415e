package app

import (
	"context"
	"fmt"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/catalog"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/config"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/handlers"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/repositories/postgres"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/chat"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/extract"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/providers"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/providers/groq"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/providers/tei"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/rank"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/retrieval"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/synthesis"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central wiring
// point for dependency injection: everything is constructed once at startup
// and passed by reference, no package-level singletons.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Catalog
	Store *catalog.Store

	// Services
	ChatService *chat.Service

	// Handlers
	ChatHandler   *handlers.ChatHandler
	HealthHandler *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Database
	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.DB = db

	// Catalog snapshot; a failure here is fatal, the service must not serve
	// requests without a catalog.
	courseRepo := postgres.NewCourseRepository(db.DB, logger)
	store, err := catalog.Load(ctx, courseRepo, cfg.Retrieval.EmbeddingIndexPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	deps.Store = store

	// Provider adapters
	chatClient := groq.NewGroqAdapter(providers.ProviderConfig{
		APIKey:     cfg.Groq.APIKey,
		BaseURL:    cfg.Groq.BaseURL,
		Timeout:    cfg.Groq.Timeout,
		MaxRetries: cfg.Groq.MaxRetries,
	})
	teiClient := tei.NewTEIAdapter(tei.Config{
		EmbedBaseURL:  cfg.TEI.EmbedBaseURL,
		RerankBaseURL: cfg.TEI.RerankBaseURL,
		Timeout:       cfg.TEI.Timeout,
	})

	// Scorer strategy, selected once at construction
	scorer, err := buildScorer(cfg, teiClient, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("relevance scorer selected", zap.String("scorer", scorer.Name()))

	// Pipeline services
	extractor := extract.NewService(chatClient, extract.Config{
		Model:      cfg.Groq.ExtractionModel,
		PromptFile: cfg.Retrieval.ExtractorPromptFile,
	}, logger)

	retriever := retrieval.NewService(extractor, scorer, store, cfg.Retrieval.MaxAttempts, logger)

	synthesizer := synthesis.NewService(chatClient, synthesis.Config{
		Model:      cfg.Groq.SynthesisModel,
		MaxCourses: cfg.Retrieval.MaxCourses,
	}, logger)

	deps.ChatService = chat.NewService(retriever, synthesizer, store, logger)

	// Handlers
	deps.ChatHandler = handlers.NewChatHandler(deps.ChatService, logger)
	deps.HealthHandler = handlers.NewHealthHandler(db, store)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// buildScorer constructs the configured relevance scorer.
func buildScorer(cfg *config.Config, teiClient *tei.TEIAdapter, logger *zap.Logger) (rank.RelevanceScorer, error) {
	switch cfg.Retrieval.Scorer {
	case config.ScorerBiEncoder:
		return rank.NewFieldWeightedBiEncoderScorer(teiClient, logger), nil
	case config.ScorerCrossEncoder:
		return rank.NewCrossEncoderScorer(teiClient, cfg.Retrieval.BatchSize, cfg.Retrieval.MaxInFlight, logger), nil
	default:
		return nil, fmt.Errorf("unknown retrieval scorer %q", cfg.Retrieval.Scorer)
	}
}

// Close releases held resources.
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
