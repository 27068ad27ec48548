package ctxpack

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files under root; map keys are slash-separated paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

type stubCounter struct {
	count int
	err   error
}

func (s stubCounter) CountTokens(string) (int, error) {
	return s.count, s.err
}

var errNoVocabulary = errors.New("vocabulary unavailable")

// offlineOptions avoids loading a tokenizer vocabulary over the network.
func offlineOptions() Options {
	return Options{TokenCounter: stubCounter{err: errNoVocabulary}}
}
