// Package filestore implements atomic CRUD on the categorized markdown
// tree rooted at MEMORY_FILES_PATH: main.md plus one subdirectory per
// non-main category, each holding <slug>.md files.
package filestore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/model"
	"github.com/rs/zerolog"
)

// MainFile is the sentinel top-level document that always exists once the
// memory tree is initialized.
const MainFile = "main.md"

// UpdateMode selects how Update combines new content with the existing
// file body.
type UpdateMode string

const (
	ModeReplace UpdateMode = "replace"
	ModeAppend  UpdateMode = "append"
	ModePrepend UpdateMode = "prepend"
)

// Event is emitted after a committed write, carrying enough information
// for the Memory Manager to drive the JSON Index and Sync Service.
type Event struct {
	FilePath string
	OldHash  string
	NewHash  string
	Deleted  bool
}

// Store owns exclusive write access to the on-disk markdown subtree.
type Store struct {
	root     string
	logger   zerolog.Logger
	locks    *pathLocks
	OnChange func(Event)
}

// New creates the root directory if absent and returns a Store over it.
func New(root string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "creating memory files root %s", root)
	}
	logger.Info().Str("path", root).Msg("file_store_initialized")
	return &Store{root: root, logger: logger, locks: newPathLocks()}, nil
}

// Root returns the absolute filesystem root this store manages.
func (s *Store) Root() string { return s.root }

func (s *Store) abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// PathFor derives the canonical relative path for a title in a category:
// always "main.md" for main, "<category>s/<slug>.md" otherwise.
func PathFor(cat model.Category, title string) string {
	slug := model.Slugify(title)
	if cat == model.CategoryMain {
		return MainFile
	}
	return filepath.ToSlash(filepath.Join(cat.Dir(), slug+".md"))
}

// Exists reports whether relPath is present under the root.
func (s *Store) Exists(relPath string) bool {
	_, err := os.Stat(s.abs(relPath))
	return err == nil
}

// Create writes a brand-new file, failing AlreadyExists if the derived
// path is already present.
func (s *Store) Create(relPath, content string) (hash string, err error) {
	unlock := s.locks.lock(relPath)
	defer unlock()

	if s.Exists(relPath) {
		return "", errs.New(errs.AlreadyExists, "file already exists: %s", relPath)
	}

	content = normalizeNewlines(content)
	if err := writeAtomic(s.abs(relPath), []byte(content), 0o644); err != nil {
		return "", errs.Wrap(errs.Internal, err, "creating %s", relPath)
	}

	newHash := model.HashContent([]byte(content))
	s.emit(Event{FilePath: relPath, NewHash: newHash})
	s.logger.Info().Str("file_path", relPath).Int("size", len(content)).Msg("file_written")
	return newHash, nil
}

// Read returns the current bytes of relPath as a string.
func (s *Store) Read(relPath string) (string, error) {
	data, err := os.ReadFile(s.abs(relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.New(errs.NotFound, "file not found: %s", relPath)
		}
		return "", errs.Wrap(errs.Internal, err, "reading %s", relPath)
	}
	return string(data), nil
}

// Update rewrites relPath according to mode, returning the old and new
// content hashes.
func (s *Store) Update(relPath, content string, mode UpdateMode) (oldHash, newHash string, err error) {
	unlock := s.locks.lock(relPath)
	defer unlock()

	existing, err := s.Read(relPath)
	if err != nil {
		return "", "", err
	}
	oldHash = model.HashContent([]byte(existing))

	var next string
	switch mode {
	case ModeReplace, "":
		next = content
	case ModeAppend:
		next = strings.TrimRight(existing, "\n") + "\n\n" + content
	case ModePrepend:
		next = content + "\n\n" + strings.TrimLeft(existing, "\n")
	default:
		return "", "", errs.New(errs.InvalidArgument, "unknown update mode: %s", mode)
	}
	next = normalizeNewlines(next)

	if err := writeAtomic(s.abs(relPath), []byte(next), 0o644); err != nil {
		return "", "", errs.Wrap(errs.Internal, err, "updating %s", relPath)
	}

	newHash = model.HashContent([]byte(next))
	s.emit(Event{FilePath: relPath, OldHash: oldHash, NewHash: newHash})
	s.logger.Info().Str("file_path", relPath).Str("mode", string(mode)).Msg("file_updated")
	return oldHash, newHash, nil
}

// WithLock runs fn against relPath's current content and writes back
// whatever it returns, holding relPath's per-path lock across the whole
// read-modify-write. Callers that would otherwise Read then separately
// Update risk a second writer clobbering the first's edit between those
// two calls; WithLock closes that window. fn returning its input
// unchanged is treated as a no-op write.
func (s *Store) WithLock(relPath string, fn func(content string) (string, error)) (oldHash, newHash string, err error) {
	unlock := s.locks.lock(relPath)
	defer unlock()

	content, err := s.Read(relPath)
	if err != nil {
		return "", "", err
	}
	updated, err := fn(content)
	if err != nil {
		return "", "", err
	}
	if updated == content {
		h := model.HashContent([]byte(content))
		return h, h, nil
	}
	return s.updateRaw(relPath, updated)
}

// Delete removes relPath, returning NotFound if it was already absent.
func (s *Store) Delete(relPath string) error {
	unlock := s.locks.lock(relPath)
	defer func() {
		unlock()
		s.locks.forget(relPath)
	}()

	existing, err := os.ReadFile(s.abs(relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return errs.New(errs.NotFound, "file not found: %s", relPath)
		}
		return errs.Wrap(errs.Internal, err, "reading %s before delete", relPath)
	}

	if err := os.Remove(s.abs(relPath)); err != nil {
		return errs.Wrap(errs.Internal, err, "deleting %s", relPath)
	}

	oldHash := model.HashContent(existing)
	s.emit(Event{FilePath: relPath, OldHash: oldHash, Deleted: true})
	s.logger.Info().Str("file_path", relPath).Msg("file_deleted")
	return nil
}

// ListEntry is one row of a flat file listing.
type ListEntry struct {
	FilePath string
	Category model.Category
}

// List walks the root for *.md files, excluding main.md, returning a flat
// slice in lexical order.
func (s *Store) List() ([]ListEntry, error) {
	var out []ListEntry
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == MainFile {
			return nil
		}
		cat := categoryFromPath(rel)
		out = append(out, ListEntry{FilePath: rel, Category: cat})
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "listing memory files")
	}
	return out, nil
}

func categoryFromPath(relPath string) model.Category {
	dir := filepath.Dir(filepath.FromSlash(relPath))
	if dir == "." {
		return model.CategoryOther
	}
	top := strings.Split(filepath.ToSlash(dir), "/")[0]
	top = strings.TrimSuffix(top, "s")
	if cat, err := model.ParseCategory(top); err == nil {
		return cat
	}
	return model.CategoryOther
}

func (s *Store) emit(e Event) {
	if s.OnChange != nil {
		s.OnChange(e)
	}
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
