package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docchat/config"
	"docchat/internal/adapter/chunker"
	"docchat/internal/adapter/loader"
	"docchat/internal/adapter/store"
	"docchat/internal/logger"
	"docchat/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Index PDF documents for retrieval",
	Long: `Extract text from PDF documents in the given directory, split it into
chunks, embed them, and store the vectors in .docchat/index.db. Re-running
over an unchanged corpus is a no-op; only new documents are embedded.

Examples:
  docchat ingest .               # Index PDFs under the current directory
  docchat ingest /path/to/docs   # Index a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()

	if err := config.EnsureStateDir(path); err != nil {
		return fmt.Errorf("failed to create .docchat directory: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	dbPath := config.IndexDBPath(path)
	st, err := store.Open(dbPath, embedder.Dimension())
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	chk, err := chunker.NewPageChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("invalid chunking config: %w", err)
	}

	docs := loader.NewPDFLoader(cfg.Ingest.Includes, cfg.Ingest.Excludes)

	ingestUC := usecase.NewIngestUseCase(docs, chk, embedder, st,
		cfg.Embedding.BatchSize, cfg.Embedding.Concurrency)

	fmt.Printf("Scanning %s...\n", path)
	logger.Debug("embedding with %s (dim %d, batch %d, concurrency %d)",
		embedder.ModelName(), embedder.Dimension(), cfg.Embedding.BatchSize, cfg.Embedding.Concurrency)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	result, err := ingestUC.Ingest(path, progress)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Documents loaded: %d\n", result.DocumentsLoaded)
	fmt.Printf("  Pages loaded:     %d\n", result.PagesLoaded)
	fmt.Printf("  Chunks added:     %d\n", result.ChunksAdded)
	fmt.Printf("  Chunks skipped:   %d (already indexed)\n", result.ChunksSkipped)

	if len(result.Failures) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, f := range result.Failures {
			fmt.Printf("  - %s\n", f)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", dbPath)
	return nil
}
