package mcp

import (
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers grounded questions.
	Answer driving.AnswerService

	// Collection reports index statistics.
	Collection driving.CollectionService

	// Settings reads the application configuration.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	// Collection and Settings are optional; the matching tools and
	// resources degrade to empty results.
	return nil
}
