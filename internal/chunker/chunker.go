// Package chunker implements the markdown-aware splitter: header-stack
// tracking plus a break-order-preferring text splitter, producing chunks
// annotated with header_path and section_level.
package chunker

import (
	"regexp"
	"strings"

	"github.com/hoofy-agent/agent-memory/internal/model"
)

// Config carries the two tunables exposed via environment variables.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// DefaultConfig returns the documented default chunk size and overlap.
func DefaultConfig() Config {
	return Config{ChunkSize: 800, ChunkOverlap: 200}
}

var headerLineRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)

type headerEntry struct {
	level int
	title string
}

type section struct {
	headerPath []string
	level      int
	lines      []string
}

// Chunk splits content in document order, returning chunks whose
// header_path/section_level reflect their enclosing headers. Identical
// input and Config always produce an identical sequence.
func Chunk(content string, cfg Config) []model.Chunk {
	size := cfg.ChunkSize
	if size < 1 {
		size = 1
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	sections := splitSections(content)

	var out []model.Chunk
	index := 0
	for _, sec := range sections {
		for _, body := range chunkSectionText(sec, size, overlap) {
			trimmed := strings.TrimSpace(body)
			if trimmed == "" {
				continue
			}
			out = append(out, model.Chunk{
				ChunkIndex:   index,
				Content:      trimmed,
				HeaderPath:   append([]string(nil), sec.headerPath...),
				SectionLevel: sec.level,
				TokenCount:   model.WordCount(trimmed),
			})
			index++
		}
	}
	return out
}

// splitSections walks the document, maintaining a header stack, and
// groups lines into per-section blocks. A section's first line is its
// owning header line (absent for the document's leading, pre-header
// section).
func splitSections(content string) []section {
	lines := strings.Split(content, "\n")
	var stack []headerEntry
	var sections []section
	cur := section{headerPath: nil, level: 0}

	flush := func() {
		if len(cur.lines) > 0 {
			sections = append(sections, cur)
		}
	}

	for _, line := range lines {
		if m := headerLineRe.FindStringSubmatch(line); m != nil {
			flush()
			level := len(m[1])
			title := m[2]
			for len(stack) > 0 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, headerEntry{level: level, title: title})
			cur = section{headerPath: headerPathOf(stack), level: len(stack), lines: []string{line}}
			continue
		}
		cur.lines = append(cur.lines, line)
	}
	flush()
	return sections
}

func headerPathOf(stack []headerEntry) []string {
	out := make([]string, len(stack))
	for i, e := range stack {
		out[i] = e.title
	}
	return out
}

// chunkSectionText chunks one section's joined lines. A header line alone
// longer than size is emitted whole — the hard cut is suppressed inside a
// header line — with the remainder of the section chunked independently.
func chunkSectionText(sec section, size, overlap int) []string {
	if len(sec.lines) == 0 {
		return nil
	}

	isHeaderSection := sec.level > 0
	headerLine := ""
	bodyLines := sec.lines
	if isHeaderSection {
		headerLine = sec.lines[0]
		bodyLines = sec.lines[1:]
	}
	body := strings.Join(bodyLines, "\n")

	if headerLine == "" {
		return chunkText(body, size, overlap)
	}
	if len(headerLine) > size {
		out := []string{headerLine}
		out = append(out, chunkText(body, size, overlap)...)
		return out
	}
	return chunkText(headerLine+"\n"+body, size, overlap)
}

// chunkText applies the preferred break order (double newline > single
// newline > sentence end > word boundary > hard cut) to split text into
// pieces no longer than size, overlapping consecutive pieces by overlap
// characters of the previous piece's tail.
func chunkText(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var out []string
	start := 0
	n := len(text)
	for start < n {
		end := start + size
		if end >= n {
			out = append(out, text[start:n])
			break
		}
		breakAt := findBreak(text, start, end)
		out = append(out, text[start:breakAt])

		next := breakAt - overlap
		if next <= start {
			next = breakAt
		}
		start = next
	}
	return out
}

// findBreak searches text[start:end] for the best break point, preferring
// (in order) a double newline, a single newline, a sentence-ending
// period-space, a space, falling back to a hard cut at end.
func findBreak(text string, start, end int) int {
	window := text[start:end]

	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return start + i + 2
	}
	if i := strings.LastIndex(window, "\n"); i > 0 {
		return start + i + 1
	}
	if i := strings.LastIndex(window, ". "); i > 0 {
		return start + i + 2
	}
	if i := strings.LastIndex(window, " "); i > 0 {
		return start + i + 1
	}
	return end
}
