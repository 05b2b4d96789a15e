package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from indexed documents",
	Long: `Embeds the question, retrieves the most similar passages from the
vector index and asks the configured model to answer from them.
The sources the answer drew on are listed after it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errNotConfigured
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question cannot be empty")
	}

	result := queryService.Query(cmd.Context(), question)

	if askJSON {
		return outputAskJSON(cmd, result)
	}
	outputAskText(cmd, result)
	return nil
}

func outputAskJSON(cmd *cobra.Command, result domain.QueryResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAskText(cmd *cobra.Command, result domain.QueryResult) {
	cmd.Println(result.Answer)

	if len(result.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Printf("Sources (%d):\n", result.SourcesCount)
	for i, src := range result.Sources {
		cmd.Printf("  [%d] %s (%s)\n", i+1, src.Name, src.Type)
		if src.URL != "" {
			cmd.Printf("      %s\n", src.URL)
		}
		ordinals := make([]string, len(src.Chunks))
		for j, c := range src.Chunks {
			ordinals[j] = fmt.Sprint(c.Ordinal)
		}
		cmd.Printf("      chunks: %s\n", strings.Join(ordinals, ", "))
	}
}
