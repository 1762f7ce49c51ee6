package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
)

var (
	askJSON    bool
	askSession string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed documents",
	Long: `Answers a natural-language question grounded in the indexed
documents. The answer is built only from retrieved passages and cites
the documents it drew from.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().StringVar(&askSession, "session", "", "session identifier echoed back on the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	answer, err := answerService.Answer(cmd.Context(), args[0], driving.AnswerOptions{
		SessionID: askSession,
	})
	if err != nil {
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			return fmt.Errorf("answer failed in the %s stage: %w", stageErr.Stage, stageErr.Err)
		}
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) error {
	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range answer.Citations {
			if c.Page > 0 {
				cmd.Printf("  [%d] %s (%s, page %d)\n", i+1, c.Title, c.Source, c.Page)
			} else {
				cmd.Printf("  [%d] %s (%s)\n", i+1, c.Title, c.Source)
			}
		}
	}

	if answer.Degraded {
		cmd.Println()
		cmd.Println("Note: reranker unavailable, results ordered by similarity only.")
	}

	return nil
}
