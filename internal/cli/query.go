package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docchat/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search indexed documents",
	Long: `Search the index for passages similar to the query and print them
with page citations, best match first.

Examples:
  docchat query -q "boiling point of nitrogen"
  docchat query -q "methodology" --top-k 5 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

// queryResult is the JSON output shape for one retrieved passage.
type queryResult struct {
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	st, err := openExistingIndex(cfg, GetRootDir(), embedder.Dimension())
	if err != nil {
		return err
	}
	defer st.Close()

	retrieveUC := usecase.NewRetrieveUseCase(embedder, st,
		cfg.Retrieve.MinScore, cfg.Retrieve.ContextBudget)

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	context, err := retrieveUC.Retrieve(queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		results := make([]queryResult, len(context))
		for i, c := range context {
			results[i] = queryResult{Source: c.Source, Page: c.Page, Score: c.Score, Text: c.Text}
		}
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(context) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(context), queryText)
	for i, c := range context {
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", i+1, c.Citation(), c.Score)
		fmt.Println(truncateForDisplay(c.Text, 500))
		fmt.Println()
	}

	return nil
}

// truncateForDisplay shortens long passages on a rune boundary so a
// multi-byte character is never cut in half.
func truncateForDisplay(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
