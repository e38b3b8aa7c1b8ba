package indexstore

import "fmt"

// schemaSQL returns the idempotent DDL for memory_files, memory_chunks and
// sync_status, parameterized on embedding dimension the way the grounding
// file parameterizes its own vector columns. Deliberately diverges from
// that file's own choices: 'english' text-search config (not 'simple'),
// and IVFFlat rather than HNSW for the vector index, per the normative
// schema this service is built against.
func schemaSQL(dimension int) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS memory_files (
	id         BIGSERIAL PRIMARY KEY,
	file_path  TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	category   TEXT NOT NULL,
	file_hash  TEXT NOT NULL,
	word_count INTEGER NOT NULL DEFAULT 0,
	tags       TEXT[] NOT NULL DEFAULT '{}',
	metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS memory_chunks (
	id                BIGSERIAL PRIMARY KEY,
	file_id           BIGINT NOT NULL REFERENCES memory_files(id) ON DELETE CASCADE,
	chunk_index       INTEGER NOT NULL,
	content           TEXT NOT NULL,
	content_hash      TEXT NOT NULL,
	embedding         vector(%d),
	header_path       TEXT[] NOT NULL DEFAULT '{}',
	section_level     INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	content_tsvector  TSVECTOR GENERATED ALWAYS AS (to_tsvector('english', content)) STORED,
	UNIQUE (file_id, chunk_index)
);

CREATE TABLE IF NOT EXISTS sync_status (
	id               BIGSERIAL PRIMARY KEY,
	file_id          BIGINT NOT NULL REFERENCES memory_files(id) ON DELETE CASCADE UNIQUE,
	last_synced_at   TIMESTAMPTZ,
	last_synced_hash TEXT,
	sync_status      TEXT NOT NULL DEFAULT 'pending',
	error_message    TEXT
);

CREATE INDEX IF NOT EXISTS idx_memory_files_category   ON memory_files(category);
CREATE INDEX IF NOT EXISTS idx_memory_files_updated_at  ON memory_files(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_memory_files_tags        ON memory_files USING GIN(tags);
CREATE INDEX IF NOT EXISTS idx_memory_files_metadata    ON memory_files USING GIN(metadata);

CREATE INDEX IF NOT EXISTS idx_memory_chunks_tsvector   ON memory_chunks USING GIN(content_tsvector);
CREATE INDEX IF NOT EXISTS idx_memory_chunks_header_path ON memory_chunks USING GIN(header_path);

DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_memory_chunks_embedding') THEN
		CREATE INDEX idx_memory_chunks_embedding ON memory_chunks
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
	END IF;
END $$;

CREATE OR REPLACE FUNCTION rrf_score(rank BIGINT, k INT DEFAULT 60)
RETURNS DOUBLE PRECISION
LANGUAGE SQL
IMMUTABLE
PARALLEL SAFE
AS $$
	SELECT 1.0 / (rank + k);
$$;
`, dimension)
}
