package filestore

import "strings"

// ExtractDescription returns the first non-header, non-blank paragraph's
// first line, used as the JSON Index's description field.
func ExtractDescription(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed
	}
	return ""
}
