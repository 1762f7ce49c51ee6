// Package sqlite provides a VectorIndex backed by a SQLite file with an
// in-memory search snapshot.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ansa-cli/internal/adapters/driven/index/sqlite/migrations"
	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// metaDimensionsKey records the embedding dimensionality the index was
// created with. All vectors in one index share it.
const metaDimensionsKey = "dimensions"

// Config holds configuration for the SQLite vector index.
type Config struct {
	// DataDir is where the index file lives.
	// Defaults to ~/.ansa/data.
	DataDir string

	// Dimensions is the embedding vector size (required).
	Dimensions int
}

// docEntry is the in-memory snapshot of one document's indexed chunks.
type docEntry struct {
	ref    domain.DocumentRef
	chunks []domain.Chunk
}

// Index stores chunk vectors in SQLite and answers similarity queries
// from an in-memory snapshot loaded at open. Vectors are unit-norm so
// the dot product equals cosine similarity.
type Index struct {
	db         *sql.DB
	path       string
	dimensions int

	mu   sync.RWMutex
	docs map[string]*docEntry
}

// NewIndex opens (or creates) the index at the configured directory,
// runs migrations, verifies integrity and loads the search snapshot.
// A corrupt database file or malformed embedding blob surfaces as
// domain.ErrIndexCorruption.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.Dimensions < 1 {
		return nil, fmt.Errorf("%w: index dimensions must be positive", domain.ErrConfiguration)
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ansa", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode lets queries proceed concurrently with unrelated writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	idx := &Index{
		db:         db,
		path:       dbPath,
		dimensions: cfg.Dimensions,
		docs:       make(map[string]*docEntry),
	}

	if err := idx.checkIntegrity(); err != nil {
		db.Close()
		return nil, err
	}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := idx.checkDimensions(); err != nil {
		db.Close()
		return nil, err
	}

	if err := idx.loadSnapshot(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// Path returns the database file path.
func (idx *Index) Path() string {
	return idx.path
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// checkIntegrity runs SQLite's quick self-check on the opened file.
func (idx *Index) checkIntegrity() error {
	var result string
	if err := idx.db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: quick_check failed: %v", domain.ErrIndexCorruption, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: quick_check: %s", domain.ErrIndexCorruption, result)
	}
	return nil
}

// checkDimensions pins the index to one embedding dimensionality.
// The first open records it; later opens must match.
func (idx *Index) checkDimensions() error {
	var stored string
	err := idx.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", metaDimensionsKey).Scan(&stored)
	if err == sql.ErrNoRows {
		_, err = idx.db.Exec(`
			INSERT INTO index_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, metaDimensionsKey, strconv.Itoa(idx.dimensions))
		if err != nil {
			return fmt.Errorf("recording dimensions: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading dimensions: %w", err)
	}

	dims, err := strconv.Atoi(stored)
	if err != nil {
		return fmt.Errorf("%w: stored dimensions %q is not a number", domain.ErrIndexCorruption, stored)
	}
	if dims != idx.dimensions {
		return fmt.Errorf("%w: index was created with %d dimensions, configured for %d",
			domain.ErrConfiguration, dims, idx.dimensions)
	}
	return nil
}

// migrate runs all pending migrations.
func (idx *Index) migrate(fsys embed.FS) error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := idx.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := idx.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := idx.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// loadSnapshot reads every persisted chunk into memory, validating the
// embedding blobs on the way in.
func (idx *Index) loadSnapshot() error {
	docs := make(map[string]*docEntry)

	rows, err := idx.db.Query(`
		SELECT id, uri, source_tag, title FROM documents
	`)
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref domain.DocumentRef
		if err := rows.Scan(&ref.ID, &ref.URI, &ref.SourceTag, &ref.Title); err != nil {
			return fmt.Errorf("scanning document: %w", err)
		}
		docs[ref.ID] = &docEntry{ref: ref}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating documents: %w", err)
	}

	chunkRows, err := idx.db.Query(`
		SELECT id, document_id, ordinal, content, start_offset, end_offset, overlap, page, embedding, metadata
		FROM chunks ORDER BY document_id, ordinal
	`)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		var metadataJSON sql.NullString

		if err := chunkRows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Ordinal, &chunk.Content,
			&chunk.StartOffset, &chunk.EndOffset, &chunk.Overlap, &chunk.Page,
			&embeddingBlob, &metadataJSON); err != nil {
			return fmt.Errorf("scanning chunk: %w", err)
		}

		if len(embeddingBlob) != idx.dimensions*4 {
			return fmt.Errorf("%w: chunk %s has a %d-byte embedding, want %d",
				domain.ErrIndexCorruption, chunk.ID, len(embeddingBlob), idx.dimensions*4)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &chunk.Metadata); err != nil {
				return fmt.Errorf("%w: chunk %s metadata: %v", domain.ErrIndexCorruption, chunk.ID, err)
			}
		}

		entry, ok := docs[chunk.DocumentID]
		if !ok {
			return fmt.Errorf("%w: chunk %s references unknown document %s",
				domain.ErrIndexCorruption, chunk.ID, chunk.DocumentID)
		}
		entry.chunks = append(entry.chunks, chunk)
	}
	if err := chunkRows.Err(); err != nil {
		return fmt.Errorf("iterating chunks: %w", err)
	}

	idx.mu.Lock()
	idx.docs = docs
	idx.mu.Unlock()
	return nil
}

// Upsert inserts or replaces one document's chunks. The whole batch is
// written in a single transaction; the in-memory snapshot is swapped
// only after commit so readers never observe a partial update.
func (idx *Index) Upsert(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error {
	for _, chunk := range chunks {
		if len(chunk.Embedding) != idx.dimensions {
			return fmt.Errorf("%w: chunk %s has a %d-dimensional embedding, index wants %d",
				domain.ErrInvalidInput, chunk.ID, len(chunk.Embedding), idx.dimensions)
		}
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, uri, source_tag, title, format, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uri = excluded.uri,
			source_tag = excluded.source_tag,
			title = excluded.title,
			format = excluded.format,
			ingested_at = excluded.ingested_at
	`, doc.ID, doc.URI, doc.SourceTag, doc.Title, doc.Format, doc.IngestedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	// Replace the document's chunk set wholesale so stale ordinals from
	// a previous ingestion cannot survive.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing old chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, ordinal, content, start_offset, end_offset, overlap, page, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Ordinal, chunk.Content,
			chunk.StartOffset, chunk.EndOffset, chunk.Overlap, chunk.Page,
			embeddingBlob, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	entry := &docEntry{
		ref: domain.DocumentRef{
			ID:        doc.ID,
			URI:       doc.URI,
			Title:     doc.Title,
			SourceTag: doc.SourceTag,
		},
		chunks: append([]domain.Chunk(nil), chunks...),
	}

	idx.mu.Lock()
	idx.docs[doc.ID] = entry
	idx.mu.Unlock()
	return nil
}

// Query returns up to k candidates for the query vector in descending
// similarity order, ties broken by chunk ID.
func (idx *Index) Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievalCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index wants %d",
			domain.ErrInvalidInput, len(vector), idx.dimensions)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1", domain.ErrInvalidInput)
	}

	idx.mu.RLock()
	var candidates []domain.RetrievalCandidate
	for _, entry := range idx.docs {
		for _, chunk := range entry.chunks {
			candidates = append(candidates, domain.RetrievalCandidate{
				Chunk:      chunk,
				Document:   entry.ref,
				Similarity: dotProduct(vector, chunk.Embedding),
			})
		}
	}
	idx.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Chunk.ID < candidates[j].Chunk.ID
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// DeleteBySource removes all chunks belonging to a document.
func (idx *Index) DeleteBySource(ctx context.Context, documentID string) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	idx.mu.Lock()
	delete(idx.docs, documentID)
	idx.mu.Unlock()
	return nil
}

// Clear removes every entry. Destructive and irreversible.
func (idx *Index) Clear(ctx context.Context) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	idx.mu.Lock()
	idx.docs = make(map[string]*docEntry)
	idx.mu.Unlock()
	return nil
}

// Stats reports the durable state of the index.
func (idx *Index) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats
	stats.Dimensions = idx.dimensions

	row := idx.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM chunks), (SELECT COUNT(*) FROM documents)
	`)
	if err := row.Scan(&stats.TotalChunks, &stats.TotalDocuments); err != nil {
		return domain.IndexStats{}, fmt.Errorf("counting index entries: %w", err)
	}
	return stats, nil
}

// dotProduct is cosine similarity for unit-norm vectors.
func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
