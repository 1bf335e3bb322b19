package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docchat/config"
	"docchat/internal/adapter/store"
	"docchat/internal/usecase"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Destroy the vector index",
	Long: `Remove every entry from the vector index so the corpus can be
re-ingested from scratch, including after a change of embedding model.
This is irreversible; chat history is kept.

Examples:
  docchat reset --yes`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm destruction of the index")
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		return fmt.Errorf("reset destroys the whole index; re-run with --yes to confirm")
	}

	dbPath := config.IndexDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'docchat ingest' first")
	}

	// Opened without the dimension guard: reset must work precisely when
	// the configured model no longer matches the stored index.
	st, err := store.OpenForReset(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	destroyed, err := usecase.NewResetUseCase(st).Reset()
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Printf("Index reset: %d entries destroyed.\n", destroyed)
	return nil
}
