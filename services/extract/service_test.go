package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeChatClient returns a canned response and records the last request.
type fakeChatClient struct {
	resp    *providers.ChatResponse
	err     error
	lastReq *providers.ChatRequest
}

func (f *fakeChatClient) Name() string { return "fake" }

func (f *fakeChatClient) ChatCompletion(_ context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func toolCallResponse(arguments string) *providers.ChatResponse {
	return &providers.ChatResponse{
		ToolCalls: []providers.ToolCall{{Name: extractionToolName, Arguments: arguments}},
	}
}

func newTestService(client providers.ChatClient) *Service {
	return NewService(client, Config{}, zap.NewNop())
}

func TestExtractTeacherQuery(t *testing.T) {
	client := &fakeChatClient{resp: toolCallResponse(`{"teacher": "羅珮綺"}`)}
	svc := newTestService(client)

	query := svc.Extract(context.Background(), []models.Message{
		{Role: "user", Content: "羅珮綺老師有什麼課"},
	})

	assert.Equal(t, models.StructuredQuery{Teacher: "羅珮綺"}, query)

	// The tool schema and forced tool choice ride along on the request.
	require.NotNil(t, client.lastReq)
	require.Len(t, client.lastReq.Tools, 1)
	assert.Equal(t, extractionToolName, client.lastReq.Tools[0].Function.Name)
	assert.Equal(t, "required", client.lastReq.ToolChoice)
	assert.Equal(t, "system", client.lastReq.Messages[0].Role)
}

func TestExtractFullQuery(t *testing.T) {
	client := &fakeChatClient{resp: toolCallResponse(
		`{"course_name": "深度學習", "department": "資管", "program": "AI學程", "grade": 4, "deliveryMode": "online"}`,
	)}
	svc := newTestService(client)

	query := svc.Extract(context.Background(), []models.Message{
		{Role: "user", Content: "大四資管有什麼AI的課"},
	})

	assert.Equal(t, "深度學習", query.Keywords)
	assert.Equal(t, "資管", query.Department)
	assert.Equal(t, "AI學程", query.Program)
	require.NotNil(t, query.Grade)
	assert.Equal(t, 4, *query.Grade)
	assert.Equal(t, models.DeliveryOnline, query.DeliveryMode)
}

func TestExtractGradeAsQuotedString(t *testing.T) {
	client := &fakeChatClient{resp: toolCallResponse(`{"teacher": "王五", "grade": "3"}`)}
	svc := newTestService(client)

	query := svc.Extract(context.Background(), []models.Message{{Role: "user", Content: "x"}})
	require.NotNil(t, query.Grade)
	assert.Equal(t, 3, *query.Grade)
}

func TestExtractDropsUnrecognizedDeliveryMode(t *testing.T) {
	client := &fakeChatClient{resp: toolCallResponse(`{"teacher": "王五", "deliveryMode": "telepathy"}`)}
	svc := newTestService(client)

	query := svc.Extract(context.Background(), []models.Message{{Role: "user", Content: "x"}})
	assert.Equal(t, "王五", query.Teacher)
	assert.Empty(t, query.DeliveryMode)
}

func TestExtractFallbacks(t *testing.T) {
	conversation := []models.Message{
		{Role: "user", Content: "我想學機器學習"},
		{Role: "assistant", Content: "你對哪方面感興趣？"},
		{Role: "user", Content: "特別對深度學習和電腦視覺感興趣"},
	}
	want := models.StructuredQuery{Keywords: "特別對深度學習和電腦視覺感興趣"}

	tests := []struct {
		name   string
		client *fakeChatClient
	}{
		{name: "service unreachable", client: &fakeChatClient{err: errors.New("connection refused")}},
		{name: "no tool calls", client: &fakeChatClient{resp: &providers.ChatResponse{Content: "chit chat"}}},
		{name: "malformed arguments", client: &fakeChatClient{resp: toolCallResponse(`{"teacher":`)}},
		{name: "zero usable fields", client: &fakeChatClient{resp: toolCallResponse(`{}`)}},
		{name: "whitespace-only fields", client: &fakeChatClient{resp: toolCallResponse(`{"teacher": "  "}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := newTestService(tt.client).Extract(context.Background(), conversation)
			assert.Equal(t, want, query)
		})
	}
}

func TestExtractFallbackSkipsAssistantMessages(t *testing.T) {
	svc := newTestService(&fakeChatClient{err: errors.New("down")})

	query := svc.Extract(context.Background(), []models.Message{
		{Role: "user", Content: "羅珮綺老師有什麼課"},
		{Role: "assistant", Content: "以下是一些課程"},
	})
	assert.Equal(t, models.StructuredQuery{Keywords: "羅珮綺老師有什麼課"}, query)
}

func TestExtractFallbackEmptyConversation(t *testing.T) {
	svc := newTestService(&fakeChatClient{err: errors.New("down")})

	query := svc.Extract(context.Background(), nil)
	assert.Equal(t, models.StructuredQuery{Keywords: defaultFallbackKeywords}, query)
}

func TestParseGrade(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
		ok   bool
	}{
		{name: "number", raw: `4`, want: 4, ok: true},
		{name: "float", raw: `4.0`, want: 4, ok: true},
		{name: "quoted", raw: `"2"`, want: 2, ok: true},
		{name: "null", raw: `null`, ok: false},
		{name: "empty", raw: ``, ok: false},
		{name: "garbage", raw: `"four"`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseGrade([]byte(tt.raw))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
