package cli

import (
	"fmt"
	"io"
	"os"

	"docchat/config"
	"docchat/internal/adapter/embedding"
	"docchat/internal/adapter/history"
	"docchat/internal/adapter/store"
	"docchat/internal/port"
)

// warnOut is where user-facing warnings go, regardless of --verbose.
var warnOut io.Writer = os.Stderr

// buildEmbedder constructs the embedding client named by the config.
func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return embedding.NewOllamaClient(cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Dimension)
	case "openai":
		return embedding.NewOpenAIClient(cfg.Embedding.Model, cfg.Embedding.APIKeyEnv, cfg.Embedding.Dimension)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// openExistingIndex opens the index database for read-side commands,
// failing with a hint when no index has been built yet.
func openExistingIndex(cfg *config.Config, rootDir string, dimension int) (*store.BoltVectorStore, error) {
	dbPath := config.IndexDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no index found. Run 'docchat ingest' first")
	}
	st, err := store.Open(dbPath, dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return st, nil
}

// openHistory opens the chat turn log, returning nil when it cannot be
// opened. History is optional for answering, but losing it should never
// be silent, so the warning bypasses the verbose gate.
func openHistory(rootDir string) port.HistoryStore {
	if err := config.EnsureStateDir(rootDir); err != nil {
		fmt.Fprintf(warnOut, "Warning: chat history unavailable: %v\n", err)
		return nil
	}
	log, err := history.Open(config.HistoryDBPath(rootDir))
	if err != nil {
		fmt.Fprintf(warnOut, "Warning: chat history unavailable: %v\n", err)
		return nil
	}
	return log
}
