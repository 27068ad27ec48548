package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agusx1211/ctxpack"
)

const headerLabel = "[header]"

// outputSection is a byte range of the aggregated document.
type outputSection struct {
	Label string
	Start int
	End   int
}

// splitSections locates the header and each file block of content. File
// blocks are contiguous, so each one ends where the next marker begins.
// Content that happens to contain a following marker makes the split
// best-effort; the returned sections never overlap.
func splitSections(content string, fileList []string) []outputSection {
	header := len(ctxpack.DocumentHeader)
	if !strings.HasPrefix(content, ctxpack.DocumentHeader) {
		return []outputSection{{Label: headerLabel, Start: 0, End: len(content)}}
	}
	sections := []outputSection{{Label: headerLabel, Start: 0, End: header}}

	offset := header
	for i, rel := range fileList {
		marker := fileMarker(rel)
		if !strings.HasPrefix(content[offset:], marker) {
			break
		}
		end := len(content)
		if i+1 < len(fileList) {
			closing := "\n</file>\n\n"
			next := closing + fileMarker(fileList[i+1])
			idx := strings.Index(content[offset+len(marker):], next)
			if idx < 0 {
				break
			}
			end = offset + len(marker) + idx + len(closing)
		}
		sections = append(sections, outputSection{Label: rel, Start: offset, End: end})
		offset = end
	}
	return sections
}

func fileMarker(rel string) string {
	return `<file path="` + rel + "\">\n"
}

func formatPercent(part, total int) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}

func topLevelLabel(rel string) (string, bool) {
	if idx := strings.Index(rel, "/"); idx >= 0 {
		return rel[:idx+1], true
	}
	return rel, false
}

// buildTokenReport breaks the token count of a successful scan down by file
// and by top-level directory.
func buildTokenReport(result ctxpack.ScanResult, counter ctxpack.TokenCounter, model string) string {
	type item struct {
		Label  string
		Tokens int
		Files  int
		IsDir  bool
	}
	sortItems := func(items []item) {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Tokens == items[j].Tokens {
				return items[i].Label < items[j].Label
			}
			return items[i].Tokens > items[j].Tokens
		})
	}

	sections := splitSections(result.Content, result.FileList)

	var files []item
	byTopLevel := map[string]*item{}
	var topLevelOrder []string
	pathTokens := 0
	otherTokens := 0
	for _, s := range sections {
		tokens := ctxpack.CountTokens(counter, result.Content[s.Start:s.End])
		if s.Label == headerLabel {
			otherTokens += tokens
			continue
		}
		pathTokens += tokens
		files = append(files, item{Label: s.Label, Tokens: tokens, Files: 1})

		label, isDir := topLevelLabel(s.Label)
		top, ok := byTopLevel[label]
		if !ok {
			top = &item{Label: label, IsDir: isDir}
			byTopLevel[label] = top
			topLevelOrder = append(topLevelOrder, label)
		}
		top.Tokens += tokens
		top.Files++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "total tokens: %d\n", result.Stats.TotalTokens)
	fmt.Fprintf(&b, "model: %s\n", model)
	fmt.Fprintf(&b, "path tokens: %d\n", pathTokens)
	fmt.Fprintf(&b, "non-path tokens: %d\n", otherTokens)

	topLevel := make([]item, 0, len(topLevelOrder))
	for _, label := range topLevelOrder {
		topLevel = append(topLevel, *byTopLevel[label])
	}
	sortItems(topLevel)
	sortItems(files)

	const maxLines = 20
	writeItems := func(title string, items []item) {
		fmt.Fprintf(&b, "\n%s:\n", title)
		limit := len(items)
		if limit > maxLines {
			limit = maxLines
		}
		for _, it := range items[:limit] {
			if it.IsDir {
				fmt.Fprintf(&b, "%d\t%s\t(%s, %d files)\n", it.Tokens, it.Label, formatPercent(it.Tokens, pathTokens), it.Files)
				continue
			}
			fmt.Fprintf(&b, "%d\t%s\t(%s)\n", it.Tokens, it.Label, formatPercent(it.Tokens, pathTokens))
		}
		if len(items) > limit {
			fmt.Fprintf(&b, "...\n")
		}
	}
	writeItems("top-level (by path tokens)", topLevel)
	writeItems("top files", files)

	return b.String()
}
