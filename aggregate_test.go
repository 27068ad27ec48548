package ctxpack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateFormat(t *testing.T) {
	got := Aggregate([]FileEntry{
		{RelativePath: "readme.md", Content: "# Hi"},
		{RelativePath: "src/main.go", Content: "package main\n"},
	})

	want := "PROJECT CONTEXT:\n================\n" +
		"<file path=\"readme.md\">\n# Hi\n</file>\n\n" +
		"<file path=\"src/main.go\">\npackage main\n\n</file>\n\n"
	require.Equal(t, want, got)
}

func TestAggregateEmpty(t *testing.T) {
	require.Equal(t, DocumentHeader, Aggregate(nil))
}

func TestAggregateDoesNotEscape(t *testing.T) {
	got := Aggregate([]FileEntry{{RelativePath: `we"ird.txt`, Content: "</file><b>&amp;"}})
	require.Contains(t, got, `<file path="we"ird.txt">`)
	require.Contains(t, got, "\n</file><b>&amp;\n</file>\n\n")
}

func TestAggregateOneBlockPerEntry(t *testing.T) {
	entries := []FileEntry{
		{RelativePath: "a", Content: "1"},
		{RelativePath: "b", Content: "2"},
		{RelativePath: "a", Content: "3"},
	}
	got := Aggregate(entries)
	require.Equal(t, len(entries), strings.Count(got, "<file path="))
	require.Less(t, strings.Index(got, "\n1\n"), strings.Index(got, "\n2\n"))
	require.Less(t, strings.Index(got, "\n2\n"), strings.Index(got, "\n3\n"))
}
