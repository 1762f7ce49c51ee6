package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure retrieval tunables and AI providers.

Keys use dot notation, e.g.:
  retrieval.chunk_size    chunk length in characters
  retrieval.overlap       overlap between consecutive chunks
  embedding.provider      ollama or openai
  generation.provider     ollama or openai
  reranker.enabled        true to enable the cross-encoder reranker`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a settings key",
	Long: `Sets a single settings key. Values are range-checked before they
are stored; out-of-range values are rejected, never clamped.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key [embedding|generation]",
	Short: "Set a provider API key",
	Long:  `Prompts for an API key without echoing it and stores it for the given provider.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetKey,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate provider connectivity",
	Long: `Checks the configured embedding, generation and reranker services by
pinging each endpoint. Unconfigured providers are skipped.`,
	RunE: runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Chunk size:     %d\n", settings.Retrieval.ChunkSize)
	cmd.Printf("  Overlap:        %d\n", settings.Retrieval.Overlap)
	cmd.Printf("  Retrieval k:    %d\n", settings.Retrieval.RetrievalK)
	cmd.Printf("  Rerank top n:   %d\n", settings.Retrieval.RerankTopN)
	cmd.Printf("  Context budget: %d tokens\n", settings.Retrieval.ContextBudget)
	cmd.Printf("  Temperature:    %.2f\n", settings.Retrieval.Temperature)
	cmd.Printf("  Max tokens:     %d\n", settings.Retrieval.MaxTokens)
	cmd.Println()

	printProvider(cmd, "Embedding", settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	printProvider(cmd, "Generation", settings.Generation.Provider, settings.Generation.Model,
		settings.Generation.BaseURL, settings.Generation.APIKey, settings.Generation.IsConfigured())

	cmd.Println("[Reranker]")
	if settings.Reranker.Enabled {
		cmd.Printf("  Enabled: yes\n")
		cmd.Printf("  Base URL: %s\n", settings.Reranker.BaseURL)
		if settings.Reranker.Model != "" {
			cmd.Printf("  Model: %s\n", settings.Reranker.Model)
		}
	} else {
		cmd.Printf("  Enabled: no\n")
	}
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Dimensions: %d\n", settings.Dimensions)

	return nil
}

func printProvider(cmd *cobra.Command, name string, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("[%s]\n", name)
	if provider == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n", provider.Description())
		cmd.Printf("  Model: %s\n", model)
		if baseURL != "" {
			cmd.Printf("  Base URL: %s\n", baseURL)
		}
		if provider.RequiresAPIKey() {
			if apiKey != "" {
				cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
			} else {
				cmd.Printf("  API Key: (not set)\n")
			}
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	value := parseSettingValue(args[1])

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %v\n", key, value)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	checks := []struct {
		name     string
		validate func() error
	}{
		{"Embedding", settingsService.ValidateEmbeddingConfig},
		{"Generation", settingsService.ValidateGenerationConfig},
		{"Reranker", settingsService.ValidateRerankerConfig},
	}

	var failed bool
	for _, check := range checks {
		cmd.Printf("%-11s ", check.name+":")
		if err := check.validate(); err != nil {
			failed = true
			cmd.Printf("FAILED: %v\n", err)
			continue
		}
		cmd.Println("OK")
	}

	if failed {
		return errors.New("configuration validation failed")
	}
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var key string
	switch args[0] {
	case "embedding":
		key = "embedding.api_key"
	case "generation":
		key = "generation.api_key"
	default:
		return fmt.Errorf("unknown provider %q, expected embedding or generation", args[0])
	}

	cmd.Print("Enter API key: ")
	apiKey := readPassword()
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key must not be empty")
	}

	if err := settingsService.Set(key, apiKey); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	cmd.Printf("API key stored for %s.\n", args[0])
	return nil
}

// parseSettingValue infers the value type from its text form:
// integers, then bools, then floats, falling back to a string.
// Integers win over bools so "1" stays numeric.
func parseSettingValue(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// maskAPIKey shows only the first and last few characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read the key without echo.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input.
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
