// Package memorymgr is the thin orchestrator enforcing the cross-component
// write ordering File Store -> JSON Index -> Sync Service, and owns the
// main.md section-level operations (append/goal/task/plan) and the
// initialize/reset lifecycle.
package memorymgr

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoofy-agent/agent-memory/internal/editor"
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/filestore"
	"github.com/hoofy-agent/agent-memory/internal/jsonindex"
	"github.com/hoofy-agent/agent-memory/internal/model"
	syncsvc "github.com/hoofy-agent/agent-memory/internal/sync"
)

// Manager orchestrates writes across the File Store, JSON Index, and Sync
// Service. Every file mutation routes through here rather than touching
// those components directly.
type Manager struct {
	files  *filestore.Store
	index  *jsonindex.Index
	syncer *syncsvc.Reconciler
	logger zerolog.Logger
}

// New builds a Manager over the given components.
func New(files *filestore.Store, index *jsonindex.Index, syncer *syncsvc.Reconciler, logger zerolog.Logger) *Manager {
	return &Manager{files: files, index: index, syncer: syncer, logger: logger}
}

// Initialize creates main.md (from the base template) and files_index.json
// if either is absent. Existing files are left untouched.
func (m *Manager) Initialize() error {
	if !m.files.Exists(filestore.MainFile) {
		if _, err := m.files.Create(filestore.MainFile, baseMainTemplate); err != nil {
			return err
		}
	}
	if err := m.index.EnsureExists(); err != nil {
		return err
	}
	m.logger.Info().Msg("memory_initialized")
	return nil
}

// Reset deletes every tracked file except main.md, clears the JSON index,
// rewrites main.md to the base template, and enqueues every removed path
// so the Sync Service's next pass clears the corresponding index store
// rows.
func (m *Manager) Reset() error {
	entries, err := m.files.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := m.files.Delete(e.FilePath); err != nil && errs.KindOf(err) != errs.NotFound {
			m.logger.Warn().Err(err).Str("file_path", e.FilePath).Msg("memory_reset_delete_failed")
		}
		m.syncer.Enqueue(e.FilePath)
	}
	if err := m.index.Clear(); err != nil {
		return err
	}

	if m.files.Exists(filestore.MainFile) {
		if _, _, err := m.files.Update(filestore.MainFile, baseMainTemplate, filestore.ModeReplace); err != nil {
			return err
		}
	} else if _, err := m.files.Create(filestore.MainFile, baseMainTemplate); err != nil {
		return err
	}
	m.syncer.Enqueue(filestore.MainFile)

	m.logger.Info().Int("files_removed", len(entries)).Msg("memory_reset")
	return nil
}

// CreateFile writes a new memory file, indexes it, adds its File Index
// link in main.md, and enqueues it for sync.
func (m *Manager) CreateFile(title string, cat model.Category, content string, tags []string, metadata map[string]any) (string, error) {
	path := filestore.PathFor(cat, title)
	if _, err := m.files.Create(path, content); err != nil {
		return "", err
	}

	desc := filestore.ExtractDescription(content)
	if desc == "" {
		desc = title
	}
	if tags == nil {
		tags = []string{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := time.Now().UTC()
	if err := m.index.Upsert(jsonindex.Entry{
		FilePath: path, Title: title, Category: cat, Description: desc,
		Tags: tags, Metadata: metadata, WordCount: model.WordCount(content),
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		return "", err
	}

	if err := m.upsertIndexLink(path, desc, cat); err != nil {
		m.logger.Warn().Err(err).Str("file_path", path).Msg("file_index_link_update_failed")
	}
	m.syncer.Enqueue(path)
	m.logger.Info().Str("file_path", path).Str("title", title).Msg("memory_file_created")
	return path, nil
}

// UpdateFile rewrites filePath per mode, refreshes its JSON Index entry,
// and enqueues it for sync.
func (m *Manager) UpdateFile(filePath, content string, mode filestore.UpdateMode) error {
	if !m.files.Exists(filePath) {
		return errs.New(errs.NotFound, "file not found: %s", filePath)
	}
	if _, _, err := m.files.Update(filePath, content, mode); err != nil {
		return err
	}

	newContent, err := m.files.Read(filePath)
	if err != nil {
		return err
	}
	if entry, ok := m.index.Get(filePath); ok {
		entry.WordCount = model.WordCount(newContent)
		entry.Description = filestore.ExtractDescription(newContent)
		entry.UpdatedAt = time.Now().UTC()
		if err := m.index.Upsert(entry); err != nil {
			return err
		}
	}

	m.syncer.Enqueue(filePath)
	m.logger.Info().Str("file_path", filePath).Str("mode", string(mode)).Msg("memory_file_updated")
	return nil
}

// DeleteFile removes filePath from disk and the JSON Index, and enqueues
// it so the Sync Service removes the corresponding index store row.
func (m *Manager) DeleteFile(filePath string) error {
	if err := m.files.Delete(filePath); err != nil {
		return err
	}
	if err := m.index.Remove(filePath); err != nil {
		return err
	}
	m.syncer.Enqueue(filePath)
	m.logger.Info().Str("file_path", filePath).Msg("memory_file_deleted")
	return nil
}

// RenameFile recomputes filePath's slug from newTitle, relying on
// filestore.Rename to both move the file and rewrite its main.md File
// Index link so the link never points at the stale old path.
func (m *Manager) RenameFile(oldPath, newTitle string) (string, error) {
	entry, ok := m.index.Get(oldPath)
	if !ok {
		return "", errs.New(errs.NotFound, "file not found in index: %s", oldPath)
	}

	newPath, err := m.files.Rename(oldPath, newTitle, entry.Description, entry.Category)
	if err != nil {
		return "", err
	}

	if err := m.index.Remove(oldPath); err != nil {
		return "", err
	}
	entry.FilePath = newPath
	entry.Title = newTitle
	entry.UpdatedAt = time.Now().UTC()
	if err := m.index.Upsert(entry); err != nil {
		return "", err
	}

	m.syncer.Enqueue(oldPath)
	m.syncer.Enqueue(newPath)
	m.logger.Info().Str("old_path", oldPath).Str("new_path", newPath).Msg("memory_file_renamed")
	return newPath, nil
}

// MoveFile relocates filePath into newCategory's directory, preserving its
// slug, and adds (or updates) its File Index link under the new category
// section.
func (m *Manager) MoveFile(filePath string, newCategory model.Category) (string, error) {
	entry, ok := m.index.Get(filePath)
	if !ok {
		return "", errs.New(errs.NotFound, "file not found in index: %s", filePath)
	}

	newPath, err := m.files.Move(filePath, newCategory)
	if err != nil {
		return "", err
	}

	if err := m.index.Remove(filePath); err != nil {
		return "", err
	}
	entry.FilePath = newPath
	entry.Category = newCategory
	entry.UpdatedAt = time.Now().UTC()
	if err := m.index.Upsert(entry); err != nil {
		return "", err
	}

	if err := m.upsertIndexLink(newPath, entry.Description, newCategory); err != nil {
		m.logger.Warn().Err(err).Str("file_path", newPath).Msg("file_index_link_update_failed")
	}
	m.syncer.Enqueue(filePath)
	m.syncer.Enqueue(newPath)
	m.logger.Info().Str("old_path", filePath).Str("new_path", newPath).Msg("memory_file_moved")
	return newPath, nil
}

// CopyFile duplicates sourcePath's content under a new title, defaulting
// to the source's category when newCategory is nil.
func (m *Manager) CopyFile(sourcePath, newTitle string, newCategory *model.Category) (string, error) {
	entry, ok := m.index.Get(sourcePath)
	if !ok {
		return "", errs.New(errs.NotFound, "file not found in index: %s", sourcePath)
	}

	cat := entry.Category
	if newCategory != nil {
		cat = *newCategory
	}

	newPath, _, err := m.files.Copy(sourcePath, newTitle, cat)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if err := m.index.Upsert(jsonindex.Entry{
		FilePath: newPath, Title: newTitle, Category: cat, Description: entry.Description,
		Tags: append([]string{}, entry.Tags...), Metadata: entry.Metadata, WordCount: entry.WordCount,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		return "", err
	}

	if err := m.upsertIndexLink(newPath, entry.Description, cat); err != nil {
		m.logger.Warn().Err(err).Str("file_path", newPath).Msg("file_index_link_update_failed")
	}
	m.syncer.Enqueue(newPath)
	m.logger.Info().Str("source", sourcePath).Str("new_path", newPath).Msg("memory_file_copied")
	return newPath, nil
}

// ListFiles returns every JSON Index entry, optionally filtered to one
// category.
func (m *Manager) ListFiles(category *model.Category) []jsonindex.Entry {
	all := m.index.All()
	if category == nil {
		return all
	}
	out := make([]jsonindex.Entry, 0, len(all))
	for _, e := range all {
		if e.Category == *category {
			out = append(out, e)
		}
	}
	return out
}

// AddTags unions tags into filePath's existing tag set and returns the
// resulting set.
func (m *Manager) AddTags(filePath string, tags []string) ([]string, error) {
	entry, ok := m.index.Get(filePath)
	if !ok {
		return nil, errs.New(errs.NotFound, "file not found in index: %s", filePath)
	}
	entry.Tags = unionTags(entry.Tags, tags)
	entry.UpdatedAt = time.Now().UTC()
	if err := m.index.Upsert(entry); err != nil {
		return nil, err
	}
	m.syncer.Enqueue(filePath)
	return entry.Tags, nil
}

// RemoveTags removes tags from filePath's existing tag set and returns the
// resulting set.
func (m *Manager) RemoveTags(filePath string, tags []string) ([]string, error) {
	entry, ok := m.index.Get(filePath)
	if !ok {
		return nil, errs.New(errs.NotFound, "file not found in index: %s", filePath)
	}
	entry.Tags = subtractTags(entry.Tags, tags)
	entry.UpdatedAt = time.Now().UTC()
	if err := m.index.Upsert(entry); err != nil {
		return nil, err
	}
	m.syncer.Enqueue(filePath)
	return entry.Tags, nil
}

// GetTags returns filePath's current tag set.
func (m *Manager) GetTags(filePath string) ([]string, error) {
	entry, ok := m.index.Get(filePath)
	if !ok {
		return nil, errs.New(errs.NotFound, "file not found in index: %s", filePath)
	}
	return entry.Tags, nil
}

// AppendToMain appends content to a named section of main.md.
func (m *Manager) AppendToMain(section, content string) error {
	return m.editMain(func(main string) (string, error) {
		return editor.EditSection(main, section, content, editor.ModeAppend)
	})
}

// UpdateMainIndex adds or updates filePath's File Index link in main.md,
// inferring its category from the path's top-level directory.
func (m *Manager) UpdateMainIndex(filePath, description string) error {
	cat := categoryFromFilePath(filePath)
	if err := m.upsertIndexLink(filePath, description, cat); err != nil {
		return err
	}
	m.syncer.Enqueue(filestore.MainFile)
	return nil
}

// GoalAction selects how UpdateGoal mutates the Current Goals section.
type GoalAction string

const (
	GoalAdd      GoalAction = "add"
	GoalComplete GoalAction = "complete"
	GoalRemove   GoalAction = "remove"
)

// UpdateGoal adds, completes, or removes a goal line in main.md. complete
// moves the line to Completed Tasks with today's date.
func (m *Manager) UpdateGoal(goal string, action GoalAction) error {
	target := "- [ ] " + goal
	switch action {
	case GoalAdd, "":
		return m.editMain(func(main string) (string, error) {
			return editor.EditSection(main, "Current Goals", target, editor.ModeAppend)
		})
	case GoalComplete:
		return m.editMain(func(main string) (string, error) {
			updated, err := removeLineFromSection(main, "Current Goals", target)
			if err != nil {
				return "", err
			}
			entry := fmt.Sprintf("- [x] %s (completed %s)", goal, today())
			return editor.EditSection(updated, "Completed Tasks", entry, editor.ModeAppend)
		})
	case GoalRemove:
		return m.editMain(func(main string) (string, error) {
			return removeLineFromSection(main, "Current Goals", target)
		})
	default:
		return errs.New(errs.InvalidArgument, "unknown goal action: %s", action)
	}
}

// UpdateTask appends a completed-task entry with today's date to main.md.
func (m *Manager) UpdateTask(task string) error {
	entry := fmt.Sprintf("- [x] %s (completed %s)", task, today())
	return m.editMain(func(main string) (string, error) {
		return editor.EditSection(main, "Completed Tasks", entry, editor.ModeAppend)
	})
}

// PlanAction selects how UpdatePlan mutates the Plans section.
type PlanAction string

const (
	PlanAdd      PlanAction = "add"
	PlanComplete PlanAction = "complete"
)

// UpdatePlan adds a plan or toggles an existing plan's checkbox to
// completed in place (it is not moved to another section).
func (m *Manager) UpdatePlan(plan string, action PlanAction) error {
	switch action {
	case PlanAdd, "":
		return m.editMain(func(main string) (string, error) {
			return editor.EditSection(main, "Plans", "- [ ] "+plan, editor.ModeAppend)
		})
	case PlanComplete:
		return m.editMain(func(main string) (string, error) {
			return toggleLineInSection(main, "Plans", "- [ ] "+plan, "- [x] "+plan)
		})
	default:
		return errs.New(errs.InvalidArgument, "unknown plan action: %s", action)
	}
}

// editMain runs edit against main.md under its per-path lock, holding the
// lock across the whole read-modify-write so two batch items mutating
// main.md concurrently serialize instead of both computing their edit
// against the same stale read.
func (m *Manager) editMain(edit func(main string) (string, error)) error {
	if _, _, err := m.files.WithLock(filestore.MainFile, edit); err != nil {
		return err
	}
	m.syncer.Enqueue(filestore.MainFile)
	return nil
}

// upsertIndexLink adds filePath's File Index link under cat's section in
// main.md, updating an existing link in place if one is already present.
// A missing category section is a silent no-op, matching
// IndexManager.update_file_index's warn-and-skip behavior.
func (m *Manager) upsertIndexLink(filePath, description string, cat model.Category) error {
	_, _, err := m.files.WithLock(filestore.MainFile, func(main string) (string, error) {
		sectionHeader := "### " + strings.Title(cat.Dir())
		body, found := editor.ExtractSection(main, sectionHeader)
		if !found {
			return main, nil
		}

		name := strings.Title(strings.ReplaceAll(strings.TrimSuffix(filepath.Base(filePath), ".md"), "_", " "))
		link := fmt.Sprintf("- [%s](/memory_files/%s) - %s", name, filePath, description)

		newBody, err := upsertLinkInBody(body, filePath, link)
		if err != nil {
			return "", err
		}

		return editor.EditSection(main, sectionHeader, newBody, editor.ModeReplace)
	})
	return err
}
