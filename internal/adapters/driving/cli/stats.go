package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long:  `Reports the durable state of the vector index: document and chunk counts, vector dimensions, and the configured chunking parameters.`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	stats, err := collectionService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Index Statistics")
	cmd.Println("================")
	cmd.Printf("  Documents:  %d\n", stats.TotalDocuments)
	cmd.Printf("  Chunks:     %d\n", stats.TotalChunks)
	cmd.Printf("  Dimensions: %d\n", stats.Dimensions)

	if settingsService != nil {
		if settings, err := settingsService.Snapshot(); err == nil {
			cmd.Println()
			cmd.Println("Configuration")
			cmd.Printf("  Chunk size:     %d\n", settings.Retrieval.ChunkSize)
			cmd.Printf("  Overlap:        %d\n", settings.Retrieval.Overlap)
			cmd.Printf("  Embedding:      %s\n", settings.Embedding.Model)
		}
	}

	return nil
}
