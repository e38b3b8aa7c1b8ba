// Package search implements the hybrid vector+fulltext search engine:
// Reciprocal Rank Fusion over the Index Store's vector_search and
// fulltext_search results, with graceful degradation when one leg fails.
package search

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hoofy-agent/agent-memory/internal/embedding"
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/indexstore"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

// Mode selects which ranking signal(s) a query uses.
type Mode string

const (
	ModeVector   Mode = "vector"
	ModeFulltext Mode = "fulltext"
	ModeHybrid   Mode = "hybrid"
)

// DefaultRRFK is the RRF_K constant used when fusing vector and fulltext
// ranks, unless overridden.
const DefaultRRFK = 60

// minCandidatePool is the floor applied to vector_search/fulltext_search's
// k so RRF fusion has headroom beyond the caller's requested limit.
const minCandidatePool = 50

// Filters narrows a search to a subset of memory files.
type Filters struct {
	Categories []model.Category
	Tags       []string
	FilePath   string
}

// Result is one search hit, grouped at the file/chunk edge.
type Result struct {
	ChunkID    int64
	FilePath   string
	Title      string
	Category   model.Category
	Content    string
	HeaderPath []string
	Score      float64
}

// Response is the outcome of a Search call, including the degraded-mode
// flag hybrid search sets when its vector leg fails but fulltext succeeds.
type Response struct {
	Results  []Result
	Degraded bool
	Warning  string
}

// Engine runs vector, fulltext, and RRF-fused hybrid search against an
// indexstore.Store, embedding queries through an embedding.Provider.
type Engine struct {
	store    indexstore.Store
	provider embedding.Provider
	rrfK     int
	logger   zerolog.Logger
}

// New builds a search Engine. provider may be nil, in which case vector
// and hybrid requests degrade to fulltext-only, matching file-only/
// no-embeddings-configured deployments.
func New(store indexstore.Store, provider embedding.Provider, rrfK int, logger zerolog.Logger) *Engine {
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}
	return &Engine{store: store, provider: provider, rrfK: rrfK, logger: logger}
}

// defaultLimit is applied when the caller omits limit entirely.
const defaultLimit = 20

// Search runs query under mode, returning up to limit results. A nil
// limit applies defaultLimit; an explicit limit of 0 returns no results
// without querying the store.
func (e *Engine) Search(ctx context.Context, query string, mode Mode, limit *int, f Filters) (Response, error) {
	if query == "" {
		return Response{}, errs.New(errs.InvalidArgument, "query must not be empty")
	}
	if limit != nil && *limit == 0 {
		return Response{}, nil
	}

	effectiveLimit := defaultLimit
	if limit != nil && *limit > 0 {
		effectiveLimit = *limit
	}

	if mode == "" {
		mode = ModeHybrid
	}
	if e.provider == nil && (mode == ModeVector || mode == ModeHybrid) {
		e.logger.Warn().Str("requested_mode", string(mode)).Msg("no_embedding_provider_fallback_to_fulltext")
		mode = ModeFulltext
	}

	sf := indexstore.Filters{Categories: f.Categories, Tags: f.Tags, FilePath: f.FilePath}
	k := effectiveLimit
	if k < minCandidatePool {
		k = minCandidatePool
	}

	switch mode {
	case ModeVector:
		return e.vectorOnly(ctx, query, effectiveLimit, k, sf)
	case ModeFulltext:
		return e.fulltextOnly(ctx, query, effectiveLimit, k, sf)
	case ModeHybrid:
		return e.hybrid(ctx, query, effectiveLimit, k, sf)
	default:
		return Response{}, errs.New(errs.InvalidArgument, "unsupported search mode: %s", mode)
	}
}

func (e *Engine) vectorOnly(ctx context.Context, query string, limit, k int, f indexstore.Filters) (Response, error) {
	vec, err := e.embedQuery(ctx, query)
	if err != nil {
		return Response{}, err
	}
	ranked, err := e.store.VectorSearch(ctx, vec, k, f)
	if err != nil {
		return Response{}, err
	}
	return e.assembleRanked(ctx, trim(ranked, limit))
}

func (e *Engine) fulltextOnly(ctx context.Context, query string, limit, k int, f indexstore.Filters) (Response, error) {
	ranked, err := e.store.FulltextSearch(ctx, query, k, f)
	if err != nil {
		return Response{}, err
	}
	return e.assembleRanked(ctx, trim(ranked, limit))
}

func (e *Engine) hybrid(ctx context.Context, query string, limit, k int, f indexstore.Filters) (Response, error) {
	vec, embedErr := e.embedQuery(ctx, query)

	var (
		vectorRanks   []indexstore.RankedChunk
		fulltextRanks []indexstore.RankedChunk
		vectorErr     error
		fulltextErr   error
		wg            sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if embedErr != nil {
			vectorErr = embedErr
			return
		}
		vectorRanks, vectorErr = e.store.VectorSearch(ctx, vec, k, f)
	}()
	go func() {
		defer wg.Done()
		fulltextRanks, fulltextErr = e.store.FulltextSearch(ctx, query, k, f)
	}()
	wg.Wait()

	if vectorErr != nil && fulltextErr != nil {
		return Response{}, errs.Wrap(errs.StorageUnavailable, fulltextErr, "both search legs failed")
	}

	if vectorErr != nil {
		e.logger.Warn().Err(vectorErr).Msg("vector_leg_failed_degrading_to_fulltext")
		results, err := e.assembleRanked(ctx, trim(fulltextRanks, limit))
		if err != nil {
			return Response{}, err
		}
		results.Degraded = true
		results.Warning = "vector search unavailable, results are fulltext-only"
		return results, nil
	}
	if fulltextErr != nil {
		e.logger.Warn().Err(fulltextErr).Msg("fulltext_leg_failed_degrading_to_vector")
		results, err := e.assembleRanked(ctx, trim(vectorRanks, limit))
		if err != nil {
			return Response{}, err
		}
		results.Degraded = true
		results.Warning = "fulltext search unavailable, results are vector-only"
		return results, nil
	}

	fused := fuseRRF(vectorRanks, fulltextRanks, e.rrfK, limit)
	return e.assembleFused(ctx, fused)
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if e.provider == nil {
		return nil, errs.New(errs.ProviderUnavailable, "no embedding provider configured")
	}
	vectors, err := e.provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type fusedRank struct {
	chunkID int64
	rrf     float64
	minRank int
}

// fuseRRF combines two independently ranked lists by Reciprocal Rank
// Fusion. A chunk present in only one list contributes only that list's
// term. Ties break by smaller min-rank, then ascending chunk_id.
func fuseRRF(vector, fulltext []indexstore.RankedChunk, rrfK, limit int) []fusedRank {
	byChunk := make(map[int64]*fusedRank)

	add := func(list []indexstore.RankedChunk) {
		for _, r := range list {
			fr, ok := byChunk[r.ChunkID]
			if !ok {
				fr = &fusedRank{chunkID: r.ChunkID, minRank: r.Rank}
				byChunk[r.ChunkID] = fr
			}
			fr.rrf += 1.0 / float64(rrfK+r.Rank)
			if r.Rank < fr.minRank {
				fr.minRank = r.Rank
			}
		}
	}
	add(vector)
	add(fulltext)

	out := make([]fusedRank, 0, len(byChunk))
	for _, fr := range byChunk {
		out = append(out, *fr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].rrf != out[j].rrf {
			return out[i].rrf > out[j].rrf
		}
		if out[i].minRank != out[j].minRank {
			return out[i].minRank < out[j].minRank
		}
		return out[i].chunkID < out[j].chunkID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func trim(ranked []indexstore.RankedChunk, limit int) []indexstore.RankedChunk {
	if len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

func (e *Engine) assembleRanked(ctx context.Context, ranked []indexstore.RankedChunk) (Response, error) {
	if len(ranked) == 0 {
		return Response{}, nil
	}
	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ChunkID
	}
	details, err := e.store.FetchChunkDetails(ctx, ids)
	if err != nil {
		return Response{}, err
	}

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		d, ok := details[r.ChunkID]
		if !ok {
			continue
		}
		results = append(results, resultFrom(d, r.Score))
	}
	return Response{Results: results}, nil
}

func (e *Engine) assembleFused(ctx context.Context, fused []fusedRank) (Response, error) {
	if len(fused) == 0 {
		return Response{}, nil
	}
	ids := make([]int64, len(fused))
	for i, fr := range fused {
		ids[i] = fr.chunkID
	}
	details, err := e.store.FetchChunkDetails(ctx, ids)
	if err != nil {
		return Response{}, err
	}

	results := make([]Result, 0, len(fused))
	for _, fr := range fused {
		d, ok := details[fr.chunkID]
		if !ok {
			continue
		}
		results = append(results, resultFrom(d, fr.rrf))
	}
	return Response{Results: results}, nil
}

func resultFrom(d indexstore.ChunkDetail, score float64) Result {
	return Result{
		ChunkID:    d.ChunkID,
		FilePath:   d.FilePath,
		Title:      d.Title,
		Category:   d.Category,
		Content:    d.Content,
		HeaderPath: d.HeaderPath,
		Score:      score,
	}
}
