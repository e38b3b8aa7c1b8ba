package search

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/indexstore"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

type fakeStore struct {
	vector      []indexstore.RankedChunk
	vectorErr   error
	fulltext    []indexstore.RankedChunk
	fulltextErr error
	details     map[int64]indexstore.ChunkDetail
}

func (f *fakeStore) UpsertFile(ctx context.Context, file *model.MemoryFile) (int64, error) { return 0, nil }
func (f *fakeStore) ReplaceChunks(ctx context.Context, fileID int64, chunks []model.Chunk) error {
	return nil
}
func (f *fakeStore) DeleteFile(ctx context.Context, filePath string) error { return nil }
func (f *fakeStore) VectorSearch(ctx context.Context, queryVec []float32, k int, filt indexstore.Filters) ([]indexstore.RankedChunk, error) {
	return f.vector, f.vectorErr
}
func (f *fakeStore) FulltextSearch(ctx context.Context, queryText string, k int, filt indexstore.Filters) ([]indexstore.RankedChunk, error) {
	return f.fulltext, f.fulltextErr
}
func (f *fakeStore) FetchChunkDetails(ctx context.Context, chunkIDs []int64) (map[int64]indexstore.ChunkDetail, error) {
	out := make(map[int64]indexstore.ChunkDetail)
	for _, id := range chunkIDs {
		if d, ok := f.details[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}
func (f *fakeStore) GetSyncStatus(ctx context.Context, filePath string) (model.SyncRecord, bool, error) {
	return model.SyncRecord{}, false, nil
}
func (f *fakeStore) SetSyncStatus(ctx context.Context, rec model.SyncRecord) error { return nil }
func (f *fakeStore) Close()                                                        {}

type fakeProvider struct {
	vector []float32
	err    error
}

func (p *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = p.vector
	}
	return out, nil
}
func (p *fakeProvider) Dimension() int { return len(p.vector) }
func (p *fakeProvider) Name() string   { return "fake" }
func (p *fakeProvider) Model() string  { return "fake-model" }

func limitPtr(n int) *int { return &n }

func detailsFor(ids ...int64) map[int64]indexstore.ChunkDetail {
	out := make(map[int64]indexstore.ChunkDetail)
	for _, id := range ids {
		out[id] = indexstore.ChunkDetail{ChunkID: id, FilePath: "main.md", Title: "Main", Content: "content"}
	}
	return out
}

func TestSearchEmptyQueryIsInvalidArgument(t *testing.T) {
	e := New(&fakeStore{}, &fakeProvider{vector: []float32{0.1}}, 60, zerolog.Nop())
	_, err := e.Search(context.Background(), "", ModeHybrid, limitPtr(20), Filters{})
	if errs.KindOf(err) != errs.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestFuseRRFChunkInBothListsOutranksSingleList(t *testing.T) {
	vector := []indexstore.RankedChunk{{ChunkID: 1, Rank: 1}, {ChunkID: 2, Rank: 2}}
	fulltext := []indexstore.RankedChunk{{ChunkID: 1, Rank: 1}, {ChunkID: 3, Rank: 2}}

	fused := fuseRRF(vector, fulltext, 60, 10)
	if len(fused) != 3 {
		t.Fatalf("expected 3 distinct chunks, got %d", len(fused))
	}
	if fused[0].chunkID != 1 {
		t.Fatalf("expected chunk 1 (present in both lists) to rank first, got %d", fused[0].chunkID)
	}
}

func TestFuseRRFTiesBreakByMinRankThenChunkID(t *testing.T) {
	vector := []indexstore.RankedChunk{{ChunkID: 5, Rank: 3}}
	fulltext := []indexstore.RankedChunk{{ChunkID: 2, Rank: 3}}

	fused := fuseRRF(vector, fulltext, 60, 10)
	if len(fused) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(fused))
	}
	if fused[0].chunkID != 2 {
		t.Fatalf("expected equal-rrf tie to break toward smaller chunk_id, got %d first", fused[0].chunkID)
	}
}

func TestFuseRRFRespectsLimit(t *testing.T) {
	vector := []indexstore.RankedChunk{{ChunkID: 1, Rank: 1}, {ChunkID: 2, Rank: 2}, {ChunkID: 3, Rank: 3}}
	fused := fuseRRF(vector, nil, 60, 2)
	if len(fused) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(fused))
	}
}

func TestHybridSearchDegradesWhenVectorLegFails(t *testing.T) {
	store := &fakeStore{
		fulltext: []indexstore.RankedChunk{{ChunkID: 7, Rank: 1, Score: 0.5}},
		details:  detailsFor(7),
	}
	provider := &fakeProvider{err: errs.New(errs.ProviderUnavailable, "down")}

	e := New(store, provider, 60, zerolog.Nop())
	resp, err := e.Search(context.Background(), "hello", ModeHybrid, limitPtr(20), Filters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !resp.Degraded {
		t.Fatal("expected degraded response")
	}
	if len(resp.Results) != 1 || resp.Results[0].ChunkID != 7 {
		t.Fatalf("expected single fulltext result, got %+v", resp.Results)
	}
}

func TestHybridSearchWithoutProviderFallsBackToFulltext(t *testing.T) {
	store := &fakeStore{
		fulltext: []indexstore.RankedChunk{{ChunkID: 9, Rank: 1, Score: 0.3}},
		details:  detailsFor(9),
	}
	e := New(store, nil, 60, zerolog.Nop())
	resp, err := e.Search(context.Background(), "hello", ModeHybrid, limitPtr(20), Filters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ChunkID != 9 {
		t.Fatalf("expected fulltext-only result, got %+v", resp.Results)
	}
}

func TestExplicitZeroLimitReturnsEmptyWithoutQueryingStore(t *testing.T) {
	store := &fakeStore{fulltext: []indexstore.RankedChunk{{ChunkID: 1, Rank: 1}}, details: detailsFor(1)}
	e := New(store, nil, 60, zerolog.Nop())
	resp, err := e.Search(context.Background(), "hello", ModeFulltext, limitPtr(0), Filters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results for limit=0, got %+v", resp.Results)
	}
}

func TestNilLimitAppliesDefault(t *testing.T) {
	store := &fakeStore{fulltext: []indexstore.RankedChunk{{ChunkID: 1, Rank: 1}}, details: detailsFor(1)}
	e := New(store, nil, 60, zerolog.Nop())
	resp, err := e.Search(context.Background(), "hello", ModeFulltext, nil, Filters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected default limit to run the search, got %+v", resp.Results)
	}
}

func TestNoMatchesReturnsEmptyNotError(t *testing.T) {
	store := &fakeStore{fulltext: nil, details: map[int64]indexstore.ChunkDetail{}}
	e := New(store, nil, 60, zerolog.Nop())
	resp, err := e.Search(context.Background(), "nonexistent term", ModeFulltext, limitPtr(20), Filters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results, got %+v", resp.Results)
	}
}
