package ctxpack

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Resolve turns input paths into file entries. Regular files are read
// directly and named by their basename; directories go through
// ScanDirectory. Inputs that cannot be stat'ed or scanned are logged and
// skipped, so one bad path never hides the others. Output keeps input order.
// The only error is cancellation of ctx.
func Resolve(ctx context.Context, inputPaths []string, opts Options) ([]FileEntry, error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	var entries []FileEntry
	for _, input := range inputPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resolved, err := resolveOne(ctx, input, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("skipping input", zap.String("path", input), zap.Error(err))
			continue
		}
		entries = append(entries, resolved...)
	}
	return entries, nil
}

func resolveOne(ctx context.Context, input string, opts Options) ([]FileEntry, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &fs.PathError{Op: "stat", Path: input, Err: fs.ErrNotExist}
	}
	absPath, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}

	switch {
	case info.Mode().IsRegular():
		content, err := ReadTextFile(absPath)
		if err != nil {
			opts.Logger.Debug("dropping file", zap.String("path", absPath), zap.Error(err))
			return nil, nil
		}
		return []FileEntry{{
			AbsolutePath: absPath,
			RelativePath: filepath.Base(absPath),
			Content:      content,
		}}, nil
	case info.IsDir():
		return ScanDirectory(ctx, absPath, opts)
	default:
		opts.Logger.Warn("skipping input that is neither a file nor a directory",
			zap.String("path", absPath), zap.Stringer("mode", info.Mode()))
		return nil, nil
	}
}
