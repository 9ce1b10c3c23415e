package synthesis

import (
	"context"
	"strings"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/providers"
	"go.uber.org/zap"
)

// defaultMaxCourses bounds how many ranked courses enter the prompt.
const defaultMaxCourses = 5

// systemPrompt steers the generation model towards concise recommendations.
const systemPrompt = "你是一位智能課程推薦助手。根據用戶提供的查詢與數據，生成必要且精確的課程建議。" +
	"若資訊不足，請提出具體的後續問題，確保結果更符合用戶需求。" +
	"回應應簡潔明瞭，避免冗餘內容。"

// apologyResponse is returned to the user when the generation service fails.
// The request still completes; the failure detail stays in the logs.
const apologyResponse = "抱歉，目前無法產生課程建議，請稍後再試。"

// Service renders the top-K retrieval result into a structured prompt and
// asks the generation model for the final natural-language answer.
type Service struct {
	chat       providers.ChatClient
	model      string
	maxCourses int
	logger     *zap.Logger
}

// Config holds synthesis configuration
type Config struct {
	// Model overrides the adapter's default chat model when set
	Model string

	// MaxCourses caps the courses rendered into the prompt (default 5)
	MaxCourses int
}

// NewService creates a new synthesis service
func NewService(chat providers.ChatClient, cfg Config, logger *zap.Logger) *Service {
	maxCourses := cfg.MaxCourses
	if maxCourses <= 0 {
		maxCourses = defaultMaxCourses
	}
	return &Service{
		chat:       chat,
		model:      cfg.Model,
		maxCourses: maxCourses,
		logger:     logger,
	}
}

// Synthesize produces the user-visible answer for a retrieval result. Any
// generation failure degrades to an apologetic reply; it never propagates.
func (s *Service) Synthesize(ctx context.Context, query models.StructuredQuery, ranked models.RankedResult, selected []*models.Course) string {
	prompt := FormatPrompt(ranked.Top(s.maxCourses), query, selected)

	resp, err := s.chat.ChatCompletion(ctx, &providers.ChatRequest{
		Model: s.model,
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 4096,
	})
	if err != nil {
		s.logger.Error("answer synthesis failed", zap.Error(err))
		return apologyResponse
	}
	if strings.TrimSpace(resp.Content) == "" {
		s.logger.Error("generation service returned an empty answer")
		return apologyResponse
	}

	return resp.Content
}
