package memorymgr

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/hoofy-agent/agent-memory/internal/editor"
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// categoryFromFilePath infers a category from a path's top-level
// directory, matching update_main_index's file_path.split('/')[0]
// derivation.
func categoryFromFilePath(filePath string) model.Category {
	dir := filepath.ToSlash(filepath.Dir(filePath))
	if dir == "." {
		return model.CategoryOther
	}
	top := strings.TrimSuffix(strings.Split(dir, "/")[0], "s")
	if cat, err := model.ParseCategory(top); err == nil {
		return cat
	}
	return model.CategoryOther
}

func unionTags(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	out := append([]string{}, existing...)
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range add {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func subtractTags(existing, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, t := range remove {
		drop[t] = true
	}
	out := make([]string, 0, len(existing))
	for _, t := range existing {
		if !drop[t] {
			out = append(out, t)
		}
	}
	return out
}

// removeLineFromSection deletes the first exact-match line within
// section's body, rewriting the section with EditSection. NotFound if
// either the section or the line is absent, scoping the removal to one
// named section rather than a whole-document regex.
func removeLineFromSection(content, section, line string) (string, error) {
	body, found := editor.ExtractSection(content, section)
	if !found {
		return "", errs.New(errs.NotFound, "section not found: %s", section)
	}
	updated, ok := removeLine(body, line)
	if !ok {
		return "", errs.New(errs.NotFound, "line not found in %s: %s", section, line)
	}
	return editor.EditSection(content, section, updated, editor.ModeReplace)
}

// toggleLineInSection replaces the first exact-match "from" line within
// section's body with "to", in place.
func toggleLineInSection(content, section, from, to string) (string, error) {
	body, found := editor.ExtractSection(content, section)
	if !found {
		return "", errs.New(errs.NotFound, "section not found: %s", section)
	}
	updated, ok := toggleLine(body, from, to)
	if !ok {
		return "", errs.New(errs.NotFound, "line not found in %s: %s", section, from)
	}
	return editor.EditSection(content, section, updated, editor.ModeReplace)
}

func removeLine(body, target string) (string, bool) {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == strings.TrimSpace(target) {
			out := append(lines[:i], lines[i+1:]...)
			return strings.TrimSpace(strings.Join(out, "\n")), true
		}
	}
	return body, false
}

func toggleLine(body, from, to string) (string, bool) {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == strings.TrimSpace(from) {
			lines[i] = to
			return strings.Join(lines, "\n"), true
		}
	}
	return body, false
}

// upsertLinkInBody replaces an existing link line for filePath within a
// File Index section's body, or inserts a new one before the section's
// placeholder comment (or appends if none is present).
func upsertLinkInBody(body, filePath, link string) (string, error) {
	lines := strings.Split(body, "\n")
	marker := "(/memory_files/" + filePath + ")"
	for i, l := range lines {
		if strings.Contains(l, marker) {
			lines[i] = link
			return strings.Join(lines, "\n"), nil
		}
	}

	for i, l := range lines {
		if strings.Contains(l, "<!-- Add") {
			out := append([]string{}, lines[:i]...)
			out = append(out, link, "")
			out = append(out, lines[i:]...)
			return strings.Join(out, "\n"), nil
		}
	}

	if body == "" {
		return link, nil
	}
	return body + "\n" + link, nil
}
