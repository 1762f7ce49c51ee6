package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

func TestStatsCmd_PrintsCounts(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("stats")
	require.NoError(t, err)

	assert.Contains(t, out, "Documents:  2")
	assert.Contains(t, out, "Chunks:     9")
	assert.Contains(t, out, "Dimensions: 768")
	assert.Contains(t, out, "Chunk size:     600")
}

func TestStatsCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer func() { statsJSON = false }()

	out, err := execute("stats", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_chunks": 9`)
	assert.Contains(t, out, `"total_documents": 2`)
}

func TestStatsCmd_Error(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.collection.statsErr = domain.ErrIndexCorruption

	_, err := execute("stats")
	assert.ErrorIs(t, err, domain.ErrIndexCorruption)
}
