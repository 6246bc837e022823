package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the recommended embedding model
	DefaultModel = "nomic-embed-text"
	// DefaultURL is the default Ollama API endpoint
	DefaultURL = "http://localhost:11434"
)

// Client turns draft text into embedding vectors
type Client struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

// NewClient creates a client for the Ollama server at rawURL
func NewClient(rawURL, model string, logger *zap.Logger) (*Client, error) {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := url.Parse(rawURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("failed to create ollama client: invalid url %q", rawURL)
	}

	return &Client{
		client: api.NewClient(base, &http.Client{Timeout: 60 * time.Second}),
		model:  model,
		logger: logger.With(zap.String("model", model)),
	}, nil
}

// IsAvailable checks if Ollama is running and accessible
func IsAvailable(ctx context.Context, rawURL string) bool {
	if rawURL == "" {
		rawURL = DefaultURL
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Embed returns one vector per input text, in input order
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("text %d cannot be empty", i)
		}
	}

	start := time.Now()
	resp, err := c.client.Embed(ctx, &api.EmbedRequest{
		Model: c.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	c.logger.Debug("generated embeddings",
		zap.Int("count", len(texts)),
		zap.Duration("took", time.Since(start)),
	)
	return resp.Embeddings, nil
}

// CheckModel checks if the configured model has been pulled
func (c *Client) CheckModel(ctx context.Context) error {
	listResp, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	for _, model := range listResp.Models {
		if model.Name == c.model || strings.TrimSuffix(model.Name, ":latest") == c.model {
			return nil
		}
	}

	return fmt.Errorf("model '%s' not found - run: ollama pull %s", c.model, c.model)
}

// Model returns the model being used
func (c *Client) Model() string {
	return c.model
}
