package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
)

// timeRounding keeps reported durations readable.
const timeRounding = time.Millisecond

var (
	ingestWatch     bool
	ingestChunkSize int
	ingestOverlap   int
	ingestSourceTag string
	ingestJSON      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest documents into the index",
	Long: `Ingests a file or a directory tree into the vector index.
Supported formats: plain text, markdown, PDF and DOCX. Documents that
fail are reported individually; the rest of the batch continues.

With --watch the command keeps running and re-ingests files as they
change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the path and re-ingest on change")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk size in characters (0 = configured value)")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", -1, "chunk overlap in characters (-1 = configured value)")
	ingestCmd.Flags().StringVar(&ingestSourceTag, "source-tag", "", "label grouping this ingestion source (default \"local\")")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	opts := driving.IngestOptions{
		ChunkSize: ingestChunkSize,
		Overlap:   ingestOverlap,
		SourceTag: ingestSourceTag,
	}

	if ingestWatch {
		report, err := ingestService.IngestPath(cmd.Context(), args[0], opts)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		if err := outputIngestReport(cmd, report); err != nil {
			return err
		}
		cmd.Printf("Watching %s for changes (Ctrl-C to stop)...\n", args[0])
		err = ingestService.Watch(cmd.Context(), args[0], opts)
		if errors.Is(err, cmd.Context().Err()) {
			return nil
		}
		return err
	}

	report, err := ingestService.IngestPath(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return outputIngestReport(cmd, report)
}

func outputIngestReport(cmd *cobra.Command, report *domain.IngestReport) error {
	if ingestJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Ingested %d document(s), %d chunk(s) in %s\n",
		report.DocumentsProcessed, report.ChunksCreated, report.Duration.Round(timeRounding))
	if report.DocumentsEmpty > 0 {
		cmd.Printf("Skipped %d empty document(s)\n", report.DocumentsEmpty)
	}
	if len(report.Errors) > 0 {
		cmd.Printf("%d document(s) failed:\n", len(report.Errors))
		for _, e := range report.Errors {
			cmd.Printf("  %s: %s\n", e.URI, e.Message)
		}
	}
	return nil
}
