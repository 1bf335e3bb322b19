package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the document chat tool.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Chat      ChatConfig      `yaml:"chat"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IngestConfig holds document loading and chunking configuration.
type IngestConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkSize    int      `yaml:"chunk_size"`    // characters per chunk
	ChunkOverlap int      `yaml:"chunk_overlap"` // characters shared between neighbors
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // "ollama", "openai", "mock"
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"` // Environment variable for API key
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK          int     `yaml:"top_k"`
	MinScore      float64 `yaml:"min_score"`      // Filter results below this similarity (0 = disabled)
	ContextBudget int     `yaml:"context_budget"` // Max characters of assembled context (0 = unlimited)
}

// ChatConfig holds answer generation configuration.
type ChatConfig struct {
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
	HistoryTurns int    `yaml:"history_turns"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the default configuration, tuned for a local
// Ollama setup with no API keys.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Includes:     []string{"**/*.pdf"},
			Excludes:     []string{"**/.docchat/**"},
			ChunkSize:    1800,
			ChunkOverlap: 200,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			Model:       "nomic-embed-text",
			BaseURL:     "http://localhost:11434/v1",
			APIKeyEnv:   "",
			Dimension:   768,
			BatchSize:   64,
			Concurrency: 4,
		},
		Retrieve: RetrieveConfig{
			TopK:          10,
			MinScore:      0,
			ContextBudget: 8000,
		},
		Chat: ChatConfig{
			Model:        "llama3.2",
			BaseURL:      "http://localhost:11434/v1",
			APIKeyEnv:    "",
			HistoryTurns: 10,
		},
		Logging: LoggingConfig{
			Verbose: false,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docchat.yaml).
func LoadFromDir(dir string) (*Config, error) {
	// Try docchat.yaml in the directory
	path := filepath.Join(dir, "docchat.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Try .docchat/config.yaml
	path = filepath.Join(dir, ".docchat", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Return defaults
	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the vector index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".docchat", "index.db")
}

// HistoryDBPath returns the path to the chat history database.
func HistoryDBPath(dir string) string {
	return filepath.Join(dir, ".docchat", "history.db")
}

// EnsureStateDir ensures the .docchat directory exists.
func EnsureStateDir(dir string) error {
	stateDir := filepath.Join(dir, ".docchat")
	return os.MkdirAll(stateDir, 0755)
}
