// Package jsonindex maintains files_index.json, an atomically-written
// mirror of file metadata used for fast listing without a database
// round-trip and as the sole metadata store in file-only mode.
package jsonindex

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/model"
	"github.com/rs/zerolog"
)

const schemaVersion = "1.0"

// Entry mirrors one MemoryFile's metadata in the JSON document.
type Entry struct {
	FilePath    string         `json:"file_path"`
	Title       string         `json:"title"`
	Category    model.Category `json:"category"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Metadata    map[string]any `json:"metadata"`
	WordCount   int            `json:"word_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Document is the top-level files_index.json shape.
type Document struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"last_updated"`
	Files       []Entry   `json:"files"`
}

func defaultDocument() Document {
	return Document{Version: schemaVersion, LastUpdated: time.Now().UTC(), Files: []Entry{}}
}

// Index guards read/modify/write access to a single files_index.json path
// with a single-writer mutex so updates stay strictly ordered.
type Index struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// New returns an Index bound to path. The file is created lazily on first
// write; Read tolerates its absence.
func New(path string, logger zerolog.Logger) *Index {
	return &Index{path: path, logger: logger}
}

// Read loads the document, rebuilding a default empty one on any missing
// file or decode failure, so a corrupted index never blocks startup.
func (idx *Index) Read() Document {
	data, err := os.ReadFile(idx.path)
	if err != nil {
		return defaultDocument()
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		idx.logger.Error().Err(err).Msg("json_index_read_failed")
		return defaultDocument()
	}
	if doc.Files == nil {
		doc.Files = []Entry{}
	}
	return doc
}

func (idx *Index) write(doc Document) error {
	doc.LastUpdated = time.Now().UTC()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Internal, err, "marshaling json index")
	}
	if err := writeAtomic(idx.path, data); err != nil {
		return errs.Wrap(errs.Internal, err, "writing json index")
	}
	idx.logger.Info().Int("files_count", len(doc.Files)).Msg("json_index_written")
	return nil
}

// Upsert adds or replaces an entry by FilePath, preserving CreatedAt from
// any prior entry.
func (idx *Index) Upsert(e Entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	doc := idx.Read()
	found := false
	for i, existing := range doc.Files {
		if existing.FilePath == e.FilePath {
			if !existing.CreatedAt.IsZero() {
				e.CreatedAt = existing.CreatedAt
			}
			doc.Files[i] = e
			found = true
			break
		}
	}
	if !found {
		doc.Files = append(doc.Files, e)
	}
	return idx.write(doc)
}

// Remove deletes the entry for filePath, a no-op success if absent.
func (idx *Index) Remove(filePath string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	doc := idx.Read()
	out := doc.Files[:0]
	for _, e := range doc.Files {
		if e.FilePath != filePath {
			out = append(out, e)
		}
	}
	doc.Files = out
	return idx.write(doc)
}

// Get returns the entry for filePath and whether it was found.
func (idx *Index) Get(filePath string) (Entry, bool) {
	doc := idx.Read()
	for _, e := range doc.Files {
		if e.FilePath == filePath {
			return e, true
		}
	}
	return Entry{}, false
}

// All returns every entry, sorted by FilePath for deterministic listing.
func (idx *Index) All() []Entry {
	doc := idx.Read()
	out := append([]Entry(nil), doc.Files...)
	sort.Slice(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out
}

// EnsureExists writes a default empty document if path is absent, a no-op
// otherwise — used by memory.initialize so a fresh tree gets a valid
// files_index.json without clobbering one that already exists.
func (idx *Index) EnsureExists() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := os.Stat(idx.path); err == nil {
		return nil
	}
	return idx.write(defaultDocument())
}

// Clear empties the files list, keeping the document structure — used by
// memory.reset.
func (idx *Index) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	doc := idx.Read()
	doc.Files = []Entry{}
	return idx.write(doc)
}

// Tree groups entries by category for the category-keyed list view.
func Tree(entries []Entry) map[model.Category][]Entry {
	out := make(map[model.Category][]Entry)
	for _, e := range entries {
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}
