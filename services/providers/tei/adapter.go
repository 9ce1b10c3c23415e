package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/services/providers"
)

// TEIAdapter implements the EmbeddingClient and RerankClient interfaces
// against a HuggingFace text-embeddings-inference server. The embed endpoint
// must serve the same model the offline catalog embedding job used; the
// rerank endpoint serves the cross-encoder (e.g. bge-reranker-base).
type TEIAdapter struct {
	embedURL   string
	rerankURL  string
	httpClient *http.Client
}

// Config holds the TEI endpoints. Embed and rerank usually run as two
// separate TEI instances because they serve different models.
type Config struct {
	// EmbedBaseURL is the base URL of the embedding instance
	EmbedBaseURL string

	// RerankBaseURL is the base URL of the reranker instance
	RerankBaseURL string

	// Timeout for requests
	Timeout time.Duration
}

// NewTEIAdapter creates a new TEI adapter
func NewTEIAdapter(cfg Config) *TEIAdapter {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &TEIAdapter{
		embedURL:  cfg.EmbedBaseURL,
		rerankURL: cfg.RerankBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider name
func (a *TEIAdapter) Name() string {
	return "tei"
}

// Embed encodes a single text into a vector
func (a *TEIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embedRequest{Inputs: []string{text}, Truncate: true})
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal embed request", 0, false, err)
	}

	respBody, err := a.post(ctx, a.embedURL+"/embed", reqBody)
	if err != nil {
		return nil, err
	}

	var vectors [][]float32
	if err := json.Unmarshal(respBody, &vectors); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal embed response", 0, false, err)
	}
	if len(vectors) != 1 {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_RESPONSE",
			fmt.Sprintf("expected 1 embedding, got %d", len(vectors)), 0, false, nil)
	}

	return vectors[0], nil
}

// Rerank returns one relevance score per document, aligned with the input
// order regardless of the order the server returns results in.
func (a *TEIAdapter) Rerank(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(rerankRequest{Query: query, Texts: documents, Truncate: true})
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal rerank request", 0, false, err)
	}

	respBody, err := a.post(ctx, a.rerankURL+"/rerank", reqBody)
	if err != nil {
		return nil, err
	}

	var results []rerankResult
	if err := json.Unmarshal(respBody, &results); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal rerank response", 0, false, err)
	}
	if len(results) != len(documents) {
		return nil, providers.NewProviderError(a.Name(), "PARTIAL_RESPONSE",
			fmt.Sprintf("expected %d scores, got %d", len(documents), len(results)), 0, false, nil)
	}

	scores := make([]float64, len(documents))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(scores) {
			return nil, providers.NewProviderError(a.Name(), "INVALID_RESPONSE",
				fmt.Sprintf("score index %d out of range", res.Index), 0, false, nil)
		}
		scores[res.Index] = res.Score
	}

	return scores, nil
}

// post executes a JSON POST and returns the response body
func (a *TEIAdapter) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		retryable := httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500
		return nil, providers.NewProviderError(a.Name(), "API_ERROR",
			fmt.Sprintf("API request failed with status %d: %s", httpResp.StatusCode, string(respBody)),
			httpResp.StatusCode, retryable, nil)
	}

	return respBody, nil
}

type embedRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

type rerankRequest struct {
	Query    string   `json:"query"`
	Texts    []string `json:"texts"`
	Truncate bool     `json:"truncate"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}
