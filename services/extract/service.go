package extract

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/providers"
	"go.uber.org/zap"
)

const extractionToolName = "course_query"

// defaultFallbackKeywords is used when the conversation has no content at all.
const defaultFallbackKeywords = "course recommendation"

// defaultSystemPrompt steers the model towards emitting the course_query tool
// call. A site-specific prompt file can replace it via config.
const defaultSystemPrompt = `You are a course query assistant. Follow these steps:
1. Extract key information from the conversation
2. Call the course_query function with the extracted parameters
3. Select at least one parameter; never invent values the user did not imply`

// courseQuerySchema is the JSON schema of the extraction tool parameters.
var courseQuerySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"teacher": {
			"type": "string",
			"description": "Name of the course teacher or instructor. Provide the name if the course has a specific instructor."
		},
		"course_name": {
			"type": "string",
			"description": "Name or keyword for the course (excluding teacher's name)."
		},
		"department": {
			"type": "string",
			"description": "Department offering the course."
		},
		"program": {
			"type": "string",
			"description": "Academic program to which the course belongs."
		},
		"grade": {
			"type": "number",
			"description": "Targeted grade or year of students for the course."
		},
		"deliveryMode": {
			"type": "string",
			"description": "Format of course delivery. Options: [online, offline, hybrid]."
		}
	},
	"required": []
}`)

// Service turns a conversation into a StructuredQuery through the chat
// model's function calling, falling back to a keywords-only query built from
// the last user message. The fallback is pure local computation and never
// fails, even with every external dependency down.
type Service struct {
	chat         providers.ChatClient
	model        string
	systemPrompt string
	logger       *zap.Logger
}

// Config holds extractor configuration
type Config struct {
	// Model overrides the adapter's default chat model when set
	Model string

	// PromptFile optionally replaces the built-in system prompt
	PromptFile string
}

// NewService creates a new extraction service
func NewService(chat providers.ChatClient, cfg Config, logger *zap.Logger) *Service {
	systemPrompt := defaultSystemPrompt
	if cfg.PromptFile != "" {
		if data, err := os.ReadFile(cfg.PromptFile); err == nil {
			systemPrompt = string(data)
		} else {
			logger.Warn("prompt file not readable, using default prompt",
				zap.String("path", cfg.PromptFile),
				zap.Error(err))
		}
	}
	return &Service{
		chat:         chat,
		model:        cfg.Model,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// Extract converts the conversation into a structured query. The returned
// query always has at least one populated field.
func (s *Service) Extract(ctx context.Context, messages []models.Message) models.StructuredQuery {
	query, err := s.extractWithModel(ctx, messages)
	if err != nil {
		s.logger.Warn("query extraction failed, using fallback query", zap.Error(err))
		return s.fallback(messages)
	}
	if query.IsEmpty() {
		s.logger.Warn("extraction produced no usable fields, using fallback query")
		return s.fallback(messages)
	}

	s.logger.Debug("extracted structured query",
		zap.Strings("fields", query.PopulatedFields()))
	return query
}

// extractWithModel calls the chat model with the course_query tool and parses
// the first tool call's arguments.
func (s *Service) extractWithModel(ctx context.Context, messages []models.Message) (models.StructuredQuery, error) {
	chatMessages := make([]providers.Message, 0, len(messages)+1)
	chatMessages = append(chatMessages, providers.Message{Role: "system", Content: s.systemPrompt})
	for _, m := range messages {
		chatMessages = append(chatMessages, providers.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := s.chat.ChatCompletion(ctx, &providers.ChatRequest{
		Model:    s.model,
		Messages: chatMessages,
		Tools: []providers.Tool{{
			Type: "function",
			Function: providers.ToolFunction{
				Name:        extractionToolName,
				Description: "Search and retrieve course information based on specified parameters. You must select at least one parameter.",
				Parameters:  courseQuerySchema,
			},
		}},
		ToolChoice: "required",
		MaxTokens:  4096,
	})
	if err != nil {
		return models.StructuredQuery{}, err
	}
	if len(resp.ToolCalls) == 0 {
		return models.StructuredQuery{}, errNoToolCall
	}

	return s.parseArguments(resp.ToolCalls[0].Arguments)
}

var errNoToolCall = &noToolCallError{}

type noToolCallError struct{}

func (*noToolCallError) Error() string { return "model returned no tool calls" }

// toolArguments is the wire shape of the course_query arguments. Grade is a
// raw value because models emit it as a number or a quoted string.
type toolArguments struct {
	Teacher      string          `json:"teacher"`
	CourseName   string          `json:"course_name"`
	Department   string          `json:"department"`
	Program      string          `json:"program"`
	Grade        json.RawMessage `json:"grade"`
	DeliveryMode string          `json:"deliveryMode"`
}

// parseArguments decodes the tool-call argument JSON into a StructuredQuery,
// dropping values it cannot make sense of rather than failing outright.
func (s *Service) parseArguments(raw string) (models.StructuredQuery, error) {
	var args toolArguments
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return models.StructuredQuery{}, err
	}

	query := models.StructuredQuery{
		Teacher:    strings.TrimSpace(args.Teacher),
		Keywords:   strings.TrimSpace(args.CourseName),
		Department: strings.TrimSpace(args.Department),
		Program:    strings.TrimSpace(args.Program),
	}

	if grade, ok := parseGrade(args.Grade); ok {
		query.Grade = &grade
	}

	mode := models.DeliveryMode(strings.ToLower(strings.TrimSpace(args.DeliveryMode)))
	if mode != "" {
		if mode.Valid() {
			query.DeliveryMode = mode
		} else {
			s.logger.Debug("dropping unrecognized delivery mode", zap.String("value", args.DeliveryMode))
		}
	}

	return query, nil
}

// parseGrade accepts a JSON number or a quoted integer.
func parseGrade(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), true
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
			return v, true
		}
	}

	return 0, false
}

// fallback builds the deterministic keywords-only query from the most recent
// user message.
func (s *Service) fallback(messages []models.Message) models.StructuredQuery {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" && messages[i].Content != "" {
			return models.StructuredQuery{Keywords: messages[i].Content}
		}
	}
	if len(messages) > 0 && messages[len(messages)-1].Content != "" {
		return models.StructuredQuery{Keywords: messages[len(messages)-1].Content}
	}
	return models.StructuredQuery{Keywords: defaultFallbackKeywords}
}
