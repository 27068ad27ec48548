package ctxpack

import "strings"

// DocumentHeader opens every aggregated document.
const DocumentHeader = "PROJECT CONTEXT:\n================\n"

// Aggregate concatenates entries into one document, each wrapped in a
// <file path="..."> block. Neither the path nor the content is escaped.
func Aggregate(entries []FileEntry) string {
	size := len(DocumentHeader)
	for _, entry := range entries {
		size += len(entry.RelativePath) + len(entry.Content) + 30
	}

	var b strings.Builder
	b.Grow(size)
	b.WriteString(DocumentHeader)
	for _, entry := range entries {
		b.WriteString(`<file path="`)
		b.WriteString(entry.RelativePath)
		b.WriteString("\">\n")
		b.WriteString(entry.Content)
		b.WriteString("\n</file>\n\n")
	}
	return b.String()
}
