package indexstore

import (
	"context"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

// NoopStore is the Store used when USE_DATABASE is false: write paths
// silently succeed (there is nothing to keep in sync), search paths fail
// with StorageUnavailable so callers can degrade or explain themselves.
type NoopStore struct{}

// NewNoop returns a Store with no backing index.
func NewNoop() *NoopStore { return &NoopStore{} }

func (n *NoopStore) UpsertFile(ctx context.Context, file *model.MemoryFile) (int64, error) {
	return 0, nil
}

func (n *NoopStore) ReplaceChunks(ctx context.Context, fileID int64, chunks []model.Chunk) error {
	return nil
}

func (n *NoopStore) DeleteFile(ctx context.Context, filePath string) error { return nil }

func (n *NoopStore) VectorSearch(ctx context.Context, queryVec []float32, k int, f Filters) ([]RankedChunk, error) {
	return nil, errs.New(errs.StorageUnavailable, "vector search requires USE_DATABASE=true")
}

func (n *NoopStore) FulltextSearch(ctx context.Context, queryText string, k int, f Filters) ([]RankedChunk, error) {
	return nil, errs.New(errs.StorageUnavailable, "fulltext search requires USE_DATABASE=true")
}

func (n *NoopStore) FetchChunkDetails(ctx context.Context, chunkIDs []int64) (map[int64]ChunkDetail, error) {
	return map[int64]ChunkDetail{}, nil
}

func (n *NoopStore) GetSyncStatus(ctx context.Context, filePath string) (model.SyncRecord, bool, error) {
	return model.SyncRecord{}, false, nil
}

func (n *NoopStore) SetSyncStatus(ctx context.Context, rec model.SyncRecord) error { return nil }

func (n *NoopStore) Close() {}
