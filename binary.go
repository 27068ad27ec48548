package ctxpack

import (
	"bytes"
	"errors"
	"io"
	"os"
	"unicode/utf8"
)

// sniffLength is the size of the leading chunk inspected by IsBinaryFile.
const sniffLength = 8000

// IsBinary reports whether data looks like binary content: it contains a NUL
// byte or is not valid UTF-8. An incomplete rune at the very end of data is
// tolerated since data is usually a truncated chunk.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	return !utf8.Valid(trimPartialRune(data))
}

// IsBinaryFile classifies the file at path by its leading chunk. It fails
// only when the file cannot be opened or read.
func IsBinaryFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	buffer := make([]byte, sniffLength)
	n, err := io.ReadFull(file, buffer)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	if n < len(buffer) {
		return IsBinary(buffer[:n]) || !utf8.Valid(buffer[:n]), nil
	}
	return IsBinary(buffer[:n]), nil
}

func trimPartialRune(data []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		start := len(data) - i
		if !utf8.RuneStart(data[start]) {
			continue
		}
		if !utf8.FullRune(data[start:]) {
			return data[:start]
		}
		break
	}
	return data
}
