// Command ansa answers natural-language questions grounded in a local
// document collection.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ansa-cli/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/ansa-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ansa-cli/internal/adapters/driven/index/sqlite"
	"github.com/custodia-labs/ansa-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/services"
	"github.com/custodia-labs/ansa-cli/internal/normalisers"
	"github.com/custodia-labs/ansa-cli/internal/normalisers/docx"
	"github.com/custodia-labs/ansa-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/ansa-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/ansa-cli/internal/normalisers/plaintext"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; keys can live in the config store.
	_ = godotenv.Load()

	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}

	promptStore, err := configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	bundle := cli.Services{Settings: settingsService}

	settings, err := settingsService.Snapshot()
	if err != nil {
		// Keep the settings commands available so the user can repair
		// the configuration.
		fmt.Fprintf(os.Stderr, "Warning: invalid configuration, only settings commands available: %v\n", err)
	} else {
		applyEnvKeys(&settings)

		embedder, err := ai.CreateEmbeddingService(settings.Embedding, settings.Dimensions)
		if err != nil {
			return err
		}
		if embedder != nil {
			defer embedder.Close()
		}

		generator, err := ai.CreateGenerationService(settings.Generation)
		if err != nil {
			return err
		}
		if generator != nil {
			defer generator.Close()
		}

		reranker := ai.CreateReranker(settings.Reranker)
		if reranker != nil {
			defer reranker.Close()
		}

		index, err := sqlite.NewIndex(sqlite.Config{Dimensions: settings.Dimensions})
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer index.Close()

		registry := normalisers.NewDefaultRegistry(
			plaintext.New(),
			markdown.New(),
			pdf.New(),
			docx.New(),
		)

		bundle.Answer = services.NewAnswerService(settingsService, embedder, index, reranker, generator, promptStore)
		bundle.Ingest = services.NewIngestService(settingsService, registry, embedder, index)
		bundle.Collection = services.NewCollectionService(index)
	}

	cli.SetServices(bundle)
	cli.SetVersion(version)
	return cli.Execute()
}

// applyEnvKeys fills API keys from the environment when the config
// store has none. The environment never overrides a stored key.
func applyEnvKeys(settings *domain.AppSettings) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if settings.Embedding.Provider == domain.AIProviderOpenAI && settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = key
		}
		if settings.Generation.Provider == domain.AIProviderOpenAI && settings.Generation.APIKey == "" {
			settings.Generation.APIKey = key
		}
	}
}
