// Package embedding provides embedding clients for generating vector representations.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

const voyageAPIURL = "https://api.voyageai.com/v1/embeddings"

// Embedder turns chunk contents into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// VoyageClient handles embeddings via Voyage AI API.
type VoyageClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a VoyageClient.
type Option func(*VoyageClient)

// WithBaseURL points the client at a different embeddings endpoint.
func WithBaseURL(url string) Option {
	return func(c *VoyageClient) { c.baseURL = url }
}

// WithRequestsPerMinute throttles outgoing requests. Zero disables throttling.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *VoyageClient) {
		if rpm <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *VoyageClient) { c.client = hc }
}

// NewVoyageClient creates a new Voyage embedding client.
func NewVoyageClient(apiKey, model string, opts ...Option) *VoyageClient {
	c := &VoyageClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: voyageAPIURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type voyageRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
}

type voyageResponse struct {
	Data  []voyageEmbedding `json:"data"`
	Usage voyageUsage       `json:"usage"`
}

type voyageEmbedding struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type voyageUsage struct {
	TotalTokens int `json:"total_tokens"`
}

// Model returns the configured model name.
func (c *VoyageClient) Model() string {
	return c.model
}

// Embed generates embeddings for the given texts.
func (c *VoyageClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	jsonBody, err := json.Marshal(voyageRequest{
		Input:     texts,
		Model:     c.model,
		InputType: "document",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var voyageResp voyageResponse
	if err := json.Unmarshal(body, &voyageResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// Sort by index to ensure order matches input
	vectors := make([][]float32, len(texts))
	for _, emb := range voyageResp.Data {
		if emb.Index < 0 || emb.Index >= len(texts) {
			return nil, fmt.Errorf("response index %d out of range for %d inputs", emb.Index, len(texts))
		}
		vectors[emb.Index] = emb.Embedding
	}

	return vectors, nil
}

// EmbedBatched handles large inputs by batching.
func EmbedBatched(ctx context.Context, e Embedder, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 128 // Voyage default max
	}

	allVectors := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += batchSize {
		end := min(i+batchSize, len(texts))

		vectors, err := e.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d failed: %w", i, end, err)
		}

		allVectors = append(allVectors, vectors...)
	}

	return allVectors, nil
}

// EmbedRecords fills in Vector for every record from its content.
func EmbedRecords(ctx context.Context, e Embedder, records []chunk.Record, batchSize int) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].Content
	}

	vectors, err := EmbedBatched(ctx, e, texts, batchSize)
	if err != nil {
		return err
	}

	for i := range records {
		records[i].Vector = vectors[i]
	}
	return nil
}

// Dimension returns the vector dimension for the model.
func (c *VoyageClient) Dimension() int {
	switch c.model {
	case "voyage-4-lite", "voyage-3-lite":
		return 512
	default:
		return 1024
	}
}
