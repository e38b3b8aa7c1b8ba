// Package editor implements the section-aware markdown edits the
// dispatcher's edit/extract/list operations need: locate a section by its
// header line and replace, append to, or prepend its body, find-and-replace
// (literal or regex), positional inserts, and a header outline. A section's
// boundary is the next header of equal-or-shallower depth, and editing a
// missing section fails NotFound rather than silently appending one.
package editor

import (
	"regexp"
	"strings"

	"github.com/hoofy-agent/agent-memory/internal/errs"
)

// Mode selects how new content combines with a section's existing body.
type Mode string

const (
	ModeReplace Mode = "replace"
	ModeAppend  Mode = "append"
	ModePrepend Mode = "prepend"
)

// Position selects where InsertAtPosition places new content.
type Position string

const (
	PositionStart       Position = "start"
	PositionEnd         Position = "end"
	PositionAfterMarker Position = "after_marker"
)

// Section describes one header line found by ListSections.
type Section struct {
	Level  int
	Header string
}

var headerLineRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)

// normalizeHeader prefixes a bare section name ("Goals") with "## " so
// callers may pass either form.
func normalizeHeader(header string) string {
	if strings.HasPrefix(strings.TrimSpace(header), "#") {
		return strings.TrimSpace(header)
	}
	return "## " + strings.TrimSpace(header)
}

func headerLevel(line string) (level int, title string, ok bool) {
	m := headerLineRe.FindStringSubmatch(strings.TrimRight(line, " \t"))
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), m[2], true
}

// locateSection finds the line range [headerIdx, endIdx) spanning a
// section's header through the line before the next header of equal or
// shallower depth (or end of document).
func locateSection(lines []string, header string) (headerIdx, endIdx, level int, found bool) {
	want := normalizeHeader(header)
	for i, line := range lines {
		lvl, _, ok := headerLevel(line)
		if !ok {
			continue
		}
		if strings.TrimRight(line, " \t") != want {
			continue
		}
		headerIdx, level, found = i, lvl, true
		endIdx = len(lines)
		for j := i + 1; j < len(lines); j++ {
			if jlvl, _, jok := headerLevel(lines[j]); jok && jlvl <= lvl {
				endIdx = j
				break
			}
		}
		return headerIdx, endIdx, level, true
	}
	return 0, 0, 0, false
}

func bodyOf(lines []string, headerIdx, endIdx int) string {
	return strings.TrimSpace(strings.Join(lines[headerIdx+1:endIdx], "\n"))
}

// EditSection replaces, appends to, or prepends new content within the
// section named by header. Returns NotFound if no line in content matches
// the header exactly.
func EditSection(content, header, newContent string, mode Mode) (string, error) {
	lines := strings.Split(content, "\n")
	headerIdx, endIdx, _, found := locateSection(lines, header)
	if !found {
		return "", errs.New(errs.NotFound, "section not found: %s", header)
	}

	existing := bodyOf(lines, headerIdx, endIdx)
	headerLine := lines[headerIdx]

	var body string
	switch mode {
	case ModeReplace, "":
		body = newContent
	case ModeAppend:
		if existing == "" {
			body = newContent
		} else {
			body = existing + "\n\n" + newContent
		}
	case ModePrepend:
		if existing == "" {
			body = newContent
		} else {
			body = newContent + "\n\n" + existing
		}
	default:
		return "", errs.New(errs.InvalidArgument, "unknown edit mode: %s", mode)
	}

	replacement := []string{headerLine, "", body}
	out := append(append(append([]string{}, lines[:headerIdx]...), replacement...), lines[endIdx:]...)
	return strings.Join(out, "\n"), nil
}

// FindReplace performs a literal or regex find/replace over content, up to
// maxReplacements occurrences (-1 for unlimited), returning the updated
// content and the number of replacements made.
func FindReplace(content, find, replace string, useRegex bool, maxReplacements int) (string, int, error) {
	if find == "" {
		return "", 0, errs.New(errs.InvalidArgument, "find must not be empty")
	}

	if useRegex {
		re, err := regexp.Compile(find)
		if err != nil {
			return "", 0, errs.Wrap(errs.InvalidArgument, err, "invalid regex pattern")
		}
		count := 0
		out := re.ReplaceAllStringFunc(content, func(match string) string {
			if maxReplacements >= 0 && count >= maxReplacements {
				return match
			}
			count++
			return re.ReplaceAllString(match, replace)
		})
		return out, count, nil
	}

	total := strings.Count(content, find)
	n := total
	if maxReplacements >= 0 && maxReplacements < total {
		n = maxReplacements
	}
	return strings.Replace(content, find, replace, limitOrAll(n, total)), n, nil
}

// limitOrAll maps a replacement budget onto strings.Replace's n argument,
// where -1 means "replace every occurrence".
func limitOrAll(n, total int) int {
	if n == total {
		return -1
	}
	return n
}

// InsertAtPosition inserts content at the start, end, or immediately after
// marker. A missing marker is NotFound, not a silent append, per the
// spec's after_marker contract.
func InsertAtPosition(content, insert string, position Position, marker string) (string, error) {
	switch position {
	case PositionStart:
		return insert + "\n\n" + content, nil
	case PositionEnd:
		return strings.TrimRight(content, "\n") + "\n\n" + insert, nil
	case PositionAfterMarker:
		if marker == "" {
			return "", errs.New(errs.InvalidArgument, "marker is required for after_marker position")
		}
		idx := strings.Index(content, marker)
		if idx < 0 {
			return "", errs.New(errs.NotFound, "marker not found: %s", marker)
		}
		before := content[:idx+len(marker)]
		after := content[idx+len(marker):]
		return before + "\n\n" + insert + "\n\n" + after, nil
	default:
		return "", errs.New(errs.InvalidArgument, "unknown insert position: %s", position)
	}
}

// ExtractSection returns a section's body and whether the header was found.
func ExtractSection(content, header string) (string, bool) {
	lines := strings.Split(content, "\n")
	headerIdx, endIdx, _, found := locateSection(lines, header)
	if !found {
		return "", false
	}
	return bodyOf(lines, headerIdx, endIdx), true
}

// ListSections returns every header line in document order.
func ListSections(content string) []Section {
	var out []Section
	for _, line := range strings.Split(content, "\n") {
		if lvl, title, ok := headerLevel(line); ok {
			out = append(out, Section{Level: lvl, Header: title})
		}
	}
	return out
}
