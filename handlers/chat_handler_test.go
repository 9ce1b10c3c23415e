package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/chat"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChatService struct {
	resp    *chat.Response
	err     error
	lastReq *chat.Request
}

func (f *fakeChatService) ProcessChat(_ context.Context, req *chat.Request) (*chat.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func postChat(t *testing.T, handler *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.HandleChat(rec, req)
	return rec
}

func TestHandleChatSuccess(t *testing.T) {
	svc := &fakeChatService{resp: &chat.Response{
		Answer:          "推薦您修習機器學習。",
		RankedCourseIDs: []string{"IM5024", "IM1001"},
	}}
	handler := NewChatHandler(svc, zap.NewNop())

	rec := postChat(t, handler, `{
		"messages": [{"role": "user", "content": "羅珮綺老師有什麼課"}],
		"semesters": "1141",
		"currentSelectedCourseId": ["IM1001"]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "推薦您修習機器學習。", resp.Response)
	assert.Equal(t, []string{"IM5024", "IM1001"}, resp.RankedCourseIDs)

	// The wire request is mapped onto the service request.
	require.NotNil(t, svc.lastReq)
	assert.Equal(t, "1141", svc.lastReq.Semesters)
	assert.Equal(t, []string{"IM1001"}, svc.lastReq.SelectedCourseIDs)
	require.Len(t, svc.lastReq.Messages, 1)
	assert.Equal(t, "user", svc.lastReq.Messages[0].Role)
}

func TestHandleChatMalformedJSON(t *testing.T) {
	handler := NewChatHandler(&fakeChatService{}, zap.NewNop())

	rec := postChat(t, handler, `{"messages": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "Invalid request body", resp.Message)
}

func TestHandleChatValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty messages", body: `{"messages": []}`},
		{name: "missing messages", body: `{"semesters": "1141"}`},
		{name: "bad role", body: `{"messages": [{"role": "robot", "content": "hi"}]}`},
		{name: "empty content", body: `{"messages": [{"role": "user", "content": ""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeChatService{}
			rec := postChat(t, NewChatHandler(svc, zap.NewNop()), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, svc.lastReq, "service must not be called on invalid input")
		})
	}
}

func TestHandleChatServiceValidationError(t *testing.T) {
	svc := &fakeChatService{err: services.ErrEmptyConversation}
	rec := postChat(t, NewChatHandler(svc, zap.NewNop()), `{
		"messages": [{"role": "user", "content": "hi"}]
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChatServiceInternalError(t *testing.T) {
	svc := &fakeChatService{err: services.ErrInternal}
	rec := postChat(t, NewChatHandler(svc, zap.NewNop()), `{
		"messages": [{"role": "user", "content": "hi"}]
	}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleChatNilRankedIDsRenderAsEmptyArray(t *testing.T) {
	svc := &fakeChatService{resp: &chat.Response{Answer: "沒有符合的課程"}}
	rec := postChat(t, NewChatHandler(svc, zap.NewNop()), `{
		"messages": [{"role": "user", "content": "hi"}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rankedCourseIds":[]`)
}
