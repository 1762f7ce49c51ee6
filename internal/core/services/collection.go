package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ansa-cli/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService exposes inspection and maintenance of the vector
// collection.
type CollectionService struct {
	index driven.VectorIndex
}

// NewCollectionService creates a new collection service.
func NewCollectionService(index driven.VectorIndex) *CollectionService {
	return &CollectionService{index: index}
}

// Stats reports the durable counts and configuration of the index.
func (s *CollectionService) Stats(ctx context.Context) (domain.IndexStats, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("index stats: %w", err)
	}
	return stats, nil
}

// Clear deletes every entry in the collection. Destructive and
// irreversible; callers gate this behind an explicit operator action.
func (s *CollectionService) Clear(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	logger.Info("Collection cleared")
	return nil
}
