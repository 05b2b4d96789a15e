package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	stats, err := ingestService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Index")
	cmd.Println("=====")
	cmd.Printf("  Records:          %d\n", stats.Records)
	cmd.Printf("  Backend:          %s\n", stats.Backend)
	cmd.Printf("  Collection:       %s\n", stats.Collection)
	cmd.Printf("  Embedding model:  %s\n", stats.EmbeddingModel)
	cmd.Printf("  Generation model: %s\n", stats.GenerationModel)
	cmd.Printf("  Chunk size:       %d\n", stats.ChunkSize)
	cmd.Printf("  Top K:            %d\n", stats.TopK)
	if stats.CacheEnabled {
		cmd.Printf("  Cache:            on (%d entries)\n", stats.CacheSize)
	} else {
		cmd.Println("  Cache:            off")
	}
	return nil
}
