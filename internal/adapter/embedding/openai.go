package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"docchat/internal/domain"
)

// Client talks to an OpenAI-compatible /embeddings endpoint. Ollama exposes
// the same surface, so a local model works through the identical path.
type Client struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	maxBatch  int
	client    *http.Client
}

type Config struct {
	Model     string
	BaseURL   string
	APIKeyEnv string // name of the environment variable holding the key
	Dimension int    // 0 means "infer from known model names"
	BatchSize int
	Timeout   time.Duration
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewClient creates an embedder for any OpenAI-compatible endpoint.
func NewClient(cfg Config) (*Client, error) {
	apiKey := "unused"
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found in environment variable: %s", cfg.APIKeyEnv)
		}
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = knownDimension(cfg.Model)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("unknown embedding dimension for model %s: set it explicitly", cfg.Model)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	maxBatch := cfg.BatchSize
	if maxBatch <= 0 {
		maxBatch = 100
	}

	return &Client{
		apiKey:    apiKey,
		model:     cfg.Model,
		baseURL:   cfg.BaseURL,
		dimension: dimension,
		maxBatch:  maxBatch,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// NewOpenAIClient uses the hosted OpenAI endpoint.
func NewOpenAIClient(model, apiKeyEnv string, dimension int) (*Client, error) {
	return NewClient(Config{
		Model:     model,
		BaseURL:   "https://api.openai.com/v1",
		APIKeyEnv: apiKeyEnv,
		Dimension: dimension,
	})
}

// NewOllamaClient uses a local Ollama server.
func NewOllamaClient(model, baseURL string, dimension int) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return NewClient(Config{
		Model:     model,
		BaseURL:   baseURL,
		Dimension: dimension,
	})
}

func knownDimension(model string) int {
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	}
	return 0
}

func (c *Client) Embed(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var all [][]float32
	for i := 0; i < len(texts); i += c.maxBatch {
		end := i + c.maxBatch
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedBatch(texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}
	return all, nil
}

func (c *Client) embedBatch(texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrProvider, resp.StatusCode, truncate(respBody, 200))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parsing response (body: %s): %v", domain.ErrProvider, truncate(respBody, 200), err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProvider, parsed.Error.Message)
	}

	vectors := make([][]float32, len(texts))
	for _, data := range parsed.Data {
		if data.Index < len(vectors) {
			vectors[data.Index] = data.Embedding
		}
	}
	for i, v := range vectors {
		if len(v) != c.dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d", domain.ErrProvider, i, len(v), c.dimension)
		}
	}
	return vectors, nil
}

func (c *Client) Dimension() int {
	return c.dimension
}

func (c *Client) ModelName() string {
	return c.model
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
