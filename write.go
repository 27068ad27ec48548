package ctxpack

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// WriteText saves content to path. An existing file keeps its permissions.
func WriteText(path string, content string) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// IsDocument reports whether the file at path starts with DocumentHeader.
func IsDocument(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	head := make([]byte, len(DocumentHeader))
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(head[:n]) == DocumentHeader, nil
}
