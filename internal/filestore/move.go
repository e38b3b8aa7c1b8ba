package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

// Move changes a file's category directory while preserving its slug.
func (s *Store) Move(relPath string, newCat model.Category) (newPath string, err error) {
	slug := strings.TrimSuffix(filepath.Base(relPath), ".md")
	newPath = filepath.ToSlash(filepath.Join(newCat.Dir(), slug+".md"))
	return s.rawMove(relPath, newPath)
}

// Rename recomputes the slug from a new title, keeping the file in its
// current category, and rewrites the file's link in main.md's File Index.
func (s *Store) Rename(relPath, newTitle, description string, cat model.Category) (newPath string, err error) {
	slug := model.Slugify(newTitle)
	newPath = filepath.ToSlash(filepath.Join(cat.Dir(), slug+".md"))

	newPath, err = s.rawMove(relPath, newPath)
	if err != nil {
		return "", err
	}

	if err := s.RewriteIndexLink(relPath, newPath, description, cat); err != nil {
		s.logger.Warn().Err(err).Str("file_path", newPath).Msg("file_index_link_rewrite_failed")
	}
	return newPath, nil
}

// Copy duplicates relPath's content under a new path derived from a title
// and category, without touching the source.
func (s *Store) Copy(relPath, newTitle string, cat model.Category) (newPath, hash string, err error) {
	content, err := s.Read(relPath)
	if err != nil {
		return "", "", err
	}
	newPath = PathFor(cat, newTitle)
	hash, err = s.Create(newPath, content)
	return newPath, hash, err
}

func (s *Store) rawMove(oldPath, newPath string) (string, error) {
	unlockOld := s.locks.lock(oldPath)
	defer unlockOld()
	if oldPath != newPath {
		unlockNew := s.locks.lock(newPath)
		defer unlockNew()
	}

	if !s.Exists(oldPath) {
		return "", errs.New(errs.NotFound, "file not found: %s", oldPath)
	}
	if oldPath != newPath && s.Exists(newPath) {
		return "", errs.New(errs.AlreadyExists, "file already exists: %s", newPath)
	}

	dst := s.abs(newPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errs.Wrap(errs.Internal, err, "creating directory for %s", newPath)
	}
	if err := os.Rename(s.abs(oldPath), dst); err != nil {
		return "", errs.Wrap(errs.Internal, err, "moving %s to %s", oldPath, newPath)
	}

	content, err := os.ReadFile(dst)
	if err != nil {
		return "", errs.Wrap(errs.Internal, err, "reading moved file %s", newPath)
	}
	hash := model.HashContent(content)
	s.locks.forget(oldPath)
	s.emit(Event{FilePath: oldPath, OldHash: hash, Deleted: true})
	s.emit(Event{FilePath: newPath, NewHash: hash})
	s.logger.Info().Str("from", oldPath).Str("to", newPath).Msg("file_moved")
	return newPath, nil
}

var fileIndexLinkPattern = `- \[.*?\]\(/memory_files/%s\).*`

// RewriteIndexLink updates the File Index entry in main.md pointing at
// oldPath to point at newPath instead, matching the entry format
// move_file already produces. A missing category section or absent
// existing link is a no-op, not an error — main.md may predate the file
// or use a custom layout.
func (s *Store) RewriteIndexLink(oldPath, newPath, description string, cat model.Category) error {
	unlock := s.locks.lock(MainFile)
	defer unlock()

	content, err := s.Read(MainFile)
	if err != nil {
		return err
	}

	sectionHeader := fmt.Sprintf("### %s", strings.Title(cat.Dir()))
	if !strings.Contains(content, sectionHeader) {
		return nil
	}

	linkRe := regexp.MustCompile(fmt.Sprintf(fileIndexLinkPattern, regexp.QuoteMeta(oldPath)))
	name := strings.Title(strings.ReplaceAll(strings.TrimSuffix(filepath.Base(newPath), ".md"), "_", " "))
	newLink := fmt.Sprintf("- [%s](/memory_files/%s) - %s", name, newPath, description)

	if !linkRe.MatchString(content) {
		return nil
	}
	content = linkRe.ReplaceAllString(content, newLink)

	_, _, err = s.updateRaw(MainFile, content)
	return err
}

// updateRaw writes relPath directly without re-taking the per-path lock
// (the caller already holds it) and without routing through Update's
// append/prepend semantics.
func (s *Store) updateRaw(relPath, content string) (oldHash, newHash string, err error) {
	existing, err := s.Read(relPath)
	if err != nil {
		return "", "", err
	}
	oldHash = model.HashContent([]byte(existing))
	content = normalizeNewlines(content)
	if err := writeAtomic(s.abs(relPath), []byte(content), 0o644); err != nil {
		return "", "", errs.Wrap(errs.Internal, err, "updating %s", relPath)
	}
	newHash = model.HashContent([]byte(content))
	s.emit(Event{FilePath: relPath, OldHash: oldHash, NewHash: newHash})
	return oldHash, newHash, nil
}
