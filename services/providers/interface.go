package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ChatClient is a chat-completion service (query extraction and answer
// synthesis both go through it).
type ChatClient interface {
	// Name returns the provider name (e.g. "groq")
	Name() string

	// ChatCompletion performs a chat completion request
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// EmbeddingClient turns text into a fixed-dimension vector using the same
// model the offline catalog embedding job used.
type EmbeddingClient interface {
	// Name returns the provider name (e.g. "tei")
	Name() string

	// Embed encodes a single text into a vector
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RerankClient scores (query, document) pairs jointly through a
// cross-encoder model. Higher scores mean more relevant.
type RerankClient interface {
	// Name returns the provider name (e.g. "tei")
	Name() string

	// Rerank returns one relevance score per document, aligned with the
	// documents slice.
	Rerank(ctx context.Context, query string, documents []string) ([]float64, error)
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	// Model identifier (e.g. "llama-3.3-70b-versatile")
	Model string `json:"model"`

	// Messages in the conversation
	Messages []Message `json:"messages"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// Tools the model may call (function calling)
	Tools []Tool `json:"tools,omitempty"`

	// ToolChoice forces tool usage when set (e.g. "required")
	ToolChoice string `json:"tool_choice,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	// Role can be "system", "user", or "assistant"
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// Tool describes a callable function exposed to the model
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction holds the function name, description and JSON schema
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall is a function invocation returned by the model
type ToolCall struct {
	// Name of the invoked function
	Name string

	// Arguments is the raw JSON argument object
	Arguments string
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	// Content is the text of the first choice (empty for pure tool calls)
	Content string

	// ToolCalls returned by the model, in order
	ToolCalls []ToolCall

	// Model that produced the response
	Model string

	// Latency of the request
	Latency time.Duration
}

// ProviderConfig holds common configuration for provider adapters
type ProviderConfig struct {
	// APIKey for authentication (empty for unauthenticated services)
	APIKey string

	// BaseURL for the API
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// MaxRetries for failed requests
	MaxRetries int

	// RetryDelay between retries
	RetryDelay time.Duration
}

// ProviderError is an error from an external model service
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Err        error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider error [%s]: %s (%v)", e.Provider, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider error [%s]: %s", e.Provider, e.Code, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Err:        err,
	}
}
