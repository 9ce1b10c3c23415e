package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/chat"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/utils"
	"go.uber.org/zap"
)

// ChatRequest is the wire format of POST /chat
type ChatRequest struct {
	Messages                []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	Semesters               string        `json:"semesters"`
	CurrentSelectedCourseID []string      `json:"currentSelectedCourseId"`
}

// ChatMessage is a single conversation turn on the wire
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatResponse is the wire format of the /chat response
type ChatResponse struct {
	Response        string   `json:"response"`
	RankedCourseIDs []string `json:"rankedCourseIds"`
}

// ChatService defines the interface for the chat pipeline
type ChatService interface {
	ProcessChat(ctx context.Context, req *chat.Request) (*chat.Response, error)
}

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var chatReq ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&chatReq); err != nil {
		h.logger.Warn("failed to parse request body", zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&chatReq); err != nil {
		h.logger.Warn("request validation failed", zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request", utils.ValidationDetails(err))
		return
	}

	messages := make([]models.Message, len(chatReq.Messages))
	for i, m := range chatReq.Messages {
		messages[i] = models.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := h.service.ProcessChat(ctx, &chat.Request{
		Messages:          messages,
		Semesters:         chatReq.Semesters,
		SelectedCourseIDs: chatReq.CurrentSelectedCourseID,
	})
	if err != nil {
		if services.IsValidationError(err) {
			_ = utils.WriteBadRequest(w, err.Error(), nil)
			return
		}
		h.logger.Error("chat pipeline failed", zap.Error(err))
		_ = utils.WriteInternalError(w, "")
		return
	}

	rankedIDs := resp.RankedCourseIDs
	if rankedIDs == nil {
		rankedIDs = []string{}
	}

	_ = utils.WriteJSON(w, http.StatusOK, ChatResponse{
		Response:        resp.Answer,
		RankedCourseIDs: rankedIDs,
	})
}
