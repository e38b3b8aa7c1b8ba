package indexstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgvpgx "github.com/pgvector/pgvector-go/pgx"
	"github.com/rs/zerolog"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

// PostgresStore persists the memory index in Postgres via pgx, with
// pgvector registered on every new connection so vector(D) columns round
// trip as []float32.
type PostgresStore struct {
	pool      *pgxpool.Pool
	logger    zerolog.Logger
	dimension int
}

// Open connects to dsn, registers pgvector on each connection, and opens
// the pool. It does not create the schema; call EnsureSchema for that.
func Open(ctx context.Context, dsn string, dimension int, logger zerolog.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "parsing database url")
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgvpgx.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errs.Wrap(errs.StorageUnavailable, err, "connecting to database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.Wrap(errs.StorageUnavailable, err, "pinging database")
	}

	s := &PostgresStore{pool: pool, logger: logger, dimension: dimension}
	logger.Info().Int("dimension", dimension).Msg("indexstore_connected")
	return s, nil
}

// EnsureSchema creates the memory_files/memory_chunks/sync_status tables,
// indexes, and rrf_score function if they do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return errs.Wrap(errs.StorageUnavailable, err, "creating vector extension")
	}
	if _, err := s.pool.Exec(ctx, schemaSQL(s.dimension)); err != nil {
		return errs.Wrap(errs.StorageUnavailable, err, "applying schema")
	}
	s.logger.Info().Msg("indexstore_schema_ensured")
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() { s.pool.Close() }

// UpsertFile inserts or updates the memory_files row for file.FilePath,
// returning its id.
func (s *PostgresStore) UpsertFile(ctx context.Context, file *model.MemoryFile) (int64, error) {
	metadata, err := json.Marshal(file.Metadata)
	if err != nil {
		return 0, errs.Wrap(errs.Internal, err, "marshalling metadata")
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO memory_files (file_path, title, category, file_hash, word_count, tags, metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (file_path) DO UPDATE SET
			title      = excluded.title,
			category   = excluded.category,
			file_hash  = excluded.file_hash,
			word_count = excluded.word_count,
			tags       = excluded.tags,
			metadata   = excluded.metadata,
			updated_at = now()
		RETURNING id
	`, file.FilePath, file.Title, string(file.Category), file.ContentHash, file.WordCount, file.Tags, metadata).Scan(&id)
	if err != nil {
		return 0, errs.Wrap(errs.StorageUnavailable, err, "upserting memory_files row for %s", file.FilePath)
	}
	return id, nil
}

// ReplaceChunks atomically replaces every memory_chunks row for fileID
// with chunks.
func (s *PostgresStore) ReplaceChunks(ctx context.Context, fileID int64, chunks []model.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, err, "beginning replace_chunks transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM memory_chunks WHERE file_id = $1`, fileID); err != nil {
		return errs.Wrap(errs.StorageUnavailable, err, "deleting old chunks for file_id=%d", fileID)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		var vec *pgvector.Vector
		if len(c.Embedding) > 0 {
			v := pgvector.NewVector(c.Embedding)
			vec = &v
		}
		batch.Queue(`
			INSERT INTO memory_chunks (file_id, chunk_index, content, content_hash, embedding, header_path, section_level)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, fileID, c.ChunkIndex, c.Content, model.HashContent([]byte(c.Content)), vec, c.HeaderPath, c.SectionLevel)
	}

	br := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return errs.Wrap(errs.StorageUnavailable, err, "inserting chunk for file_id=%d", fileID)
		}
	}
	if err := br.Close(); err != nil {
		return errs.Wrap(errs.StorageUnavailable, err, "closing batch results for file_id=%d", fileID)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Wrap(errs.StorageUnavailable, err, "committing replace_chunks for file_id=%d", fileID)
	}
	return nil
}

// DeleteFile removes the memory_files row for filePath; memory_chunks and
// sync_status cascade.
func (s *PostgresStore) DeleteFile(ctx context.Context, filePath string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM memory_files WHERE file_path = $1`, filePath)
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, err, "deleting memory_files row for %s", filePath)
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.NotFound, "no indexed file at %s", filePath)
	}
	return nil
}

// VectorSearch ranks chunks by cosine distance to queryVec, returning the
// top k (chunk_id, rank) pairs. The reported score is cosine similarity
// rescaled from its native [-1,1] range into [0,1].
func (s *PostgresStore) VectorSearch(ctx context.Context, queryVec []float32, k int, f Filters) ([]RankedChunk, error) {
	where, args := buildFilterClause(f, 2)
	vec := pgvector.NewVector(queryVec)
	query := fmt.Sprintf(`
		SELECT c.id, ROW_NUMBER() OVER (ORDER BY c.embedding <=> $1) AS rnk,
		       (1 - (c.embedding <=> $1) + 1) / 2 AS cosine_similarity
		FROM memory_chunks c
		JOIN memory_files mf ON mf.id = c.file_id
		WHERE c.embedding IS NOT NULL %s
		ORDER BY c.embedding <=> $1
		LIMIT %d
	`, where, k)
	rows, err := s.pool.Query(ctx, query, append([]interface{}{vec}, args...)...)
	if err != nil {
		return nil, errs.Wrap(errs.StorageUnavailable, err, "vector_search")
	}
	return scanRanked(rows)
}

// FulltextSearch ranks chunks against queryText via plainto_tsquery and
// ts_rank_cd, returning the top k (chunk_id, rank) pairs.
func (s *PostgresStore) FulltextSearch(ctx context.Context, queryText string, k int, f Filters) ([]RankedChunk, error) {
	where, args := buildFilterClause(f, 2)
	query := fmt.Sprintf(`
		SELECT c.id,
		       ROW_NUMBER() OVER (ORDER BY ts_rank_cd(c.content_tsvector, plainto_tsquery('english', $1)) DESC) AS rnk,
		       ts_rank_cd(c.content_tsvector, plainto_tsquery('english', $1)) AS rank_cd
		FROM memory_chunks c
		JOIN memory_files mf ON mf.id = c.file_id
		WHERE c.content_tsvector @@ plainto_tsquery('english', $1) %s
		ORDER BY ts_rank_cd(c.content_tsvector, plainto_tsquery('english', $1)) DESC
		LIMIT %d
	`, where, k)
	rows, err := s.pool.Query(ctx, query, append([]interface{}{queryText}, args...)...)
	if err != nil {
		return nil, errs.Wrap(errs.StorageUnavailable, err, "fulltext_search")
	}
	return scanRanked(rows)
}

func scanRanked(rows pgx.Rows) ([]RankedChunk, error) {
	defer rows.Close()
	var out []RankedChunk
	for rows.Next() {
		var r RankedChunk
		var rank int64
		if err := rows.Scan(&r.ChunkID, &rank, &r.Score); err != nil {
			return nil, errs.Wrap(errs.StorageUnavailable, err, "scanning ranked chunk row")
		}
		r.Rank = int(rank)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.StorageUnavailable, err, "iterating ranked chunk rows")
	}
	return out, nil
}

// buildFilterClause renders f as a " AND ..." SQL fragment plus its
// positional args, starting numbering at argStart.
func buildFilterClause(f Filters, argStart int) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	n := argStart

	if len(f.Categories) > 0 {
		cats := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			cats[i] = string(c)
		}
		clauses = append(clauses, fmt.Sprintf("AND mf.category = ANY($%d)", n))
		args = append(args, cats)
		n++
	}
	if len(f.Tags) > 0 {
		clauses = append(clauses, fmt.Sprintf("AND mf.tags @> $%d", n))
		args = append(args, f.Tags)
		n++
	}
	if f.FilePath != "" {
		clauses = append(clauses, fmt.Sprintf("AND mf.file_path = $%d", n))
		args = append(args, f.FilePath)
		n++
	}
	return strings.Join(clauses, " "), args
}

// FetchChunkDetails joins chunk rows back to their owning file for result
// assembly.
func (s *PostgresStore) FetchChunkDetails(ctx context.Context, chunkIDs []int64) (map[int64]ChunkDetail, error) {
	out := make(map[int64]ChunkDetail, len(chunkIDs))
	if len(chunkIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, mf.file_path, mf.title, mf.category, c.content, c.header_path, c.section_level
		FROM memory_chunks c
		JOIN memory_files mf ON mf.id = c.file_id
		WHERE c.id = ANY($1)
	`, chunkIDs)
	if err != nil {
		return nil, errs.Wrap(errs.StorageUnavailable, err, "fetching chunk details")
	}
	defer rows.Close()

	for rows.Next() {
		var d ChunkDetail
		var category string
		if err := rows.Scan(&d.ChunkID, &d.FilePath, &d.Title, &category, &d.Content, &d.HeaderPath, &d.SectionLevel); err != nil {
			return nil, errs.Wrap(errs.StorageUnavailable, err, "scanning chunk detail row")
		}
		d.Category, _ = model.ParseCategory(category)
		out[d.ChunkID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.StorageUnavailable, err, "iterating chunk detail rows")
	}
	return out, nil
}

// GetSyncStatus returns the sync_status row for filePath, joined through
// memory_files, and whether one exists.
func (s *PostgresStore) GetSyncStatus(ctx context.Context, filePath string) (model.SyncRecord, bool, error) {
	var rec model.SyncRecord
	var status string
	var lastHash, errMsg *string
	var lastSyncedAt *time.Time

	err := s.pool.QueryRow(ctx, `
		SELECT mf.file_path, ss.sync_status, ss.last_synced_hash, ss.error_message, ss.last_synced_at
		FROM sync_status ss
		JOIN memory_files mf ON mf.id = ss.file_id
		WHERE mf.file_path = $1
	`, filePath).Scan(&rec.FilePath, &status, &lastHash, &errMsg, &lastSyncedAt)
	if err == pgx.ErrNoRows {
		return model.SyncRecord{}, false, nil
	}
	if err != nil {
		return model.SyncRecord{}, false, errs.Wrap(errs.StorageUnavailable, err, "reading sync_status for %s", filePath)
	}

	rec.Status = model.SyncStatus(status)
	if lastHash != nil {
		rec.IndexedHash = *lastHash
	}
	if errMsg != nil {
		rec.LastError = *errMsg
	}
	return rec, true, nil
}

// SetSyncStatus upserts the sync_status row for rec.FilePath's file_id.
func (s *PostgresStore) SetSyncStatus(ctx context.Context, rec model.SyncRecord) error {
	var fileID int64
	if err := s.pool.QueryRow(ctx, `SELECT id FROM memory_files WHERE file_path = $1`, rec.FilePath).Scan(&fileID); err != nil {
		if err == pgx.ErrNoRows {
			return errs.New(errs.NotFound, "no indexed file at %s", rec.FilePath)
		}
		return errs.Wrap(errs.StorageUnavailable, err, "resolving file_id for %s", rec.FilePath)
	}

	var errMsg interface{}
	if rec.LastError != "" {
		errMsg = rec.LastError
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_status (file_id, last_synced_at, last_synced_hash, sync_status, error_message)
		VALUES ($1, now(), $2, $3, $4)
		ON CONFLICT (file_id) DO UPDATE SET
			last_synced_at   = now(),
			last_synced_hash = excluded.last_synced_hash,
			sync_status      = excluded.sync_status,
			error_message    = excluded.error_message
	`, fileID, rec.IndexedHash, string(rec.Status), errMsg)
	if err != nil {
		return errs.Wrap(errs.StorageUnavailable, err, "upserting sync_status for %s", rec.FilePath)
	}
	return nil
}
