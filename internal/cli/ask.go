package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docchat/internal/adapter/llm"
	"docchat/internal/logger"
	"docchat/internal/port"
	"docchat/internal/usecase"
)

var (
	askText      string
	askTopK      int
	askNoHistory bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask the chat model a question about your documents",
	Long: `Retrieve the most relevant passages for a question, feed them to the
chat model together with recent conversation history, and print the answer
with page citations. Each exchange is appended to .docchat/history.db.

Examples:
  docchat ask -q "What does chapter 3 conclude?"
  docchat ask -q "Compare the two methods" --top-k 5 --no-history`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question to ask (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of context passages (default from config)")
	askCmd.Flags().BoolVar(&askNoHistory, "no-history", false, "do not read or record conversation history")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	st, err := openExistingIndex(cfg, rootDir, embedder.Dimension())
	if err != nil {
		return err
	}
	defer st.Close()

	chat, err := llm.NewChatClient(llm.Config{
		Model:     cfg.Chat.Model,
		BaseURL:   cfg.Chat.BaseURL,
		APIKeyEnv: cfg.Chat.APIKeyEnv,
	})
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}

	var log port.HistoryStore
	if !askNoHistory {
		log = openHistory(rootDir)
		if log != nil {
			defer log.Close()
		}
	}

	retrieveUC := usecase.NewRetrieveUseCase(embedder, st,
		cfg.Retrieve.MinScore, cfg.Retrieve.ContextBudget)
	answerUC := usecase.NewAnswerUseCase(retrieveUC, chat, log, cfg.Chat.HistoryTurns)

	topK := cfg.Retrieve.TopK
	if askTopK > 0 {
		topK = askTopK
	}

	logger.Debug("asking %s with top-k %d", chat.ModelName(), topK)

	answer, err := answerUC.Ask(askText, topK)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	fmt.Println(answer.Text)

	if len(answer.Sources) > 0 {
		fmt.Printf("\nSources:\n")
		for _, s := range answer.Sources {
			fmt.Printf("  - %s\n", s)
		}
	}

	return nil
}
