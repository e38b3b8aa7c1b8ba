// Package embedcache is a content-hash-keyed cache of embedding vectors,
// so re-syncing an unchanged chunk never re-calls the embedding provider.
// Backed by SQLite in WAL mode, with an injectable open point, a pragma
// set, and an idempotent migration for a single small table.
package embedcache

import (
	"database/sql"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

// openDB is a package-level indirection point so tests can inject a
// fake driver without touching the filesystem.
var openDB = sql.Open

// Config configures the cache's on-disk location.
type Config struct {
	DataDir string
}

// Cache wraps a SQLite database holding the content_hash -> embedding
// mapping.
type Cache struct {
	db *sql.DB
}

// New opens (creating if needed) the cache database under cfg.DataDir.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "creating embedding cache directory")
	}

	dbPath := filepath.Join(cfg.DataDir, "embedding_cache.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "opening embedding cache database")
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errs.Wrap(errs.Internal, err, "pragma %q", p)
		}
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.Internal, err, "migrating embedding cache schema")
	}

	logger.Info().Str("path", dbPath).Msg("embedding_cache_initialized")
	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error { return c.db.Close() }

func (c *Cache) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS embedding_cache (
			content_hash TEXT NOT NULL,
			provider     TEXT NOT NULL,
			model        TEXT NOT NULL,
			dimension    INTEGER NOT NULL,
			embedding    BLOB NOT NULL,
			created_at   TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (content_hash, provider, model)
		);
	`)
	return err
}

// Get returns the cached vector for (contentHash, provider, model), and
// whether it was present.
func (c *Cache) Get(contentHash, provider, model string) ([]float32, bool, error) {
	var blob []byte
	err := c.db.QueryRow(
		`SELECT embedding FROM embedding_cache WHERE content_hash = ? AND provider = ? AND model = ?`,
		contentHash, provider, model,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(errs.Internal, err, "reading embedding cache")
	}
	return decodeVector(blob), true, nil
}

// Put stores vector under (contentHash, provider, model), overwriting any
// prior entry.
func (c *Cache) Put(contentHash, provider, model string, vector []float32) error {
	_, err := c.db.Exec(
		`INSERT INTO embedding_cache (content_hash, provider, model, dimension, embedding)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash, provider, model) DO UPDATE SET embedding = excluded.embedding, dimension = excluded.dimension`,
		contentHash, provider, model, len(vector), encodeVector(vector),
	)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "writing embedding cache")
	}
	return nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
