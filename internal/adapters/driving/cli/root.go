// Package cli implements the Ansa command-line interface.
// Commands are thin adapters over the driving ports; all pipeline
// logic lives in the core services.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ansa-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by the composition root before Execute.
var (
	answerService     driving.AnswerService
	ingestService     driving.IngestService
	collectionService driving.CollectionService
	settingsService   driving.SettingsService
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "ansa",
	Short: "Ask questions about your documents",
	Long: `Ansa answers natural-language questions grounded in a local
document collection. Ingest text, markdown, PDF or DOCX files, then
ask; answers cite the passages they were built from.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"print pipeline details to stderr")
}

// Services aggregates the driving ports the CLI needs.
type Services struct {
	Answer     driving.AnswerService
	Ingest     driving.IngestService
	Collection driving.CollectionService
	Settings   driving.SettingsService
}

// SetServices injects the service implementations. Must be called
// before Execute.
func SetServices(s Services) {
	answerService = s.Answer
	ingestService = s.Ingest
	collectionService = s.Collection
	settingsService = s.Settings
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
