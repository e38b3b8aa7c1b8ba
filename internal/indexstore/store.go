// Package indexstore implements the Postgres+pgvector-backed persistence
// layer for memory_files/memory_chunks/sync_status, and a no-op
// file-only-mode stand-in satisfying the same interface.
package indexstore

import (
	"context"

	"github.com/hoofy-agent/agent-memory/internal/model"
)

// Filters scopes a search or listing to a subset of chunks.
type Filters struct {
	Categories []model.Category
	Tags       []string
	FilePath   string
}

// RankedChunk is one row of a vector_search/fulltext_search result: a
// chunk identifier, its 1-based position in that ranking, and the metric
// behind the ranking (cosine similarity rescaled to [0,1] for
// vector_search, raw ts_rank_cd for fulltext_search) so single-mode
// searches can report a score beyond the rank itself.
type RankedChunk struct {
	ChunkID int64
	Rank    int
	Score   float64
}

// ChunkDetail is the denormalized view the Search Engine needs to build a
// result edge, joining a chunk back to its owning file.
type ChunkDetail struct {
	ChunkID      int64
	FilePath     string
	Title        string
	Category     model.Category
	Content      string
	HeaderPath   []string
	SectionLevel int
}

// Store is the persistence interface the Search Engine and Sync Service
// depend on. PostgresStore and NoopStore both satisfy it, selected at
// construction by USE_DATABASE.
type Store interface {
	UpsertFile(ctx context.Context, file *model.MemoryFile) (fileID int64, err error)
	ReplaceChunks(ctx context.Context, fileID int64, chunks []model.Chunk) error
	DeleteFile(ctx context.Context, filePath string) error

	VectorSearch(ctx context.Context, queryVec []float32, k int, f Filters) ([]RankedChunk, error)
	FulltextSearch(ctx context.Context, queryText string, k int, f Filters) ([]RankedChunk, error)
	FetchChunkDetails(ctx context.Context, chunkIDs []int64) (map[int64]ChunkDetail, error)

	GetSyncStatus(ctx context.Context, filePath string) (model.SyncRecord, bool, error)
	SetSyncStatus(ctx context.Context, rec model.SyncRecord) error

	Close()
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*NoopStore)(nil)
)
