package ctxpack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// pruneDir at the scan root is never descended into.
const pruneDir = "node_modules"

var (
	errBinaryContent   = errors.New("binary content")
	errInvalidEncoding = errors.New("content is not valid UTF-8")
)

// FileEntry is one surviving text file.
type FileEntry struct {
	AbsolutePath string
	RelativePath string
	Content      string
}

// ReadTextFile returns the content of path if it is a readable text file.
func ReadTextFile(path string) (string, error) {
	isBinary, err := IsBinaryFile(path)
	if err != nil {
		return "", err
	}
	if isBinary {
		return "", errBinaryContent
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errInvalidEncoding
	}
	return string(data), nil
}

// ScanDirectory enumerates every file under root, hidden files included,
// drops the ones excluded by the root's ruleset and returns the readable
// text files in traversal order. Unreadable and binary files are dropped
// silently. Errors come from cancellation of ctx or an unreadable root.
func ScanDirectory(ctx context.Context, root string, opts Options) ([]FileEntry, error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	rules := BuildRuleSet(root, opts.Rules, opts.Exclude, logger)

	// WalkDir does not follow a symlinked root, so walk its target while
	// entries keep the caller's path.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	candidates, err := listFiles(ctx, walkRoot)
	if err != nil {
		return nil, err
	}

	survivors := candidates[:0]
	for _, rel := range candidates {
		if rules.IsExcluded(rel) {
			continue
		}
		if !matchesInclude(rel, opts.Include) {
			continue
		}
		survivors = append(survivors, rel)
	}
	logger.Debug("directory enumerated",
		zap.String("root", root),
		zap.Int("files", len(candidates)),
		zap.Int("survivors", len(survivors)))

	slots := make([]*FileEntry, len(survivors))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)
	for i, rel := range survivors {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			absPath := filepath.Join(root, filepath.FromSlash(rel))
			content, err := ReadTextFile(absPath)
			if err != nil {
				logger.Debug("dropping file", zap.String("path", absPath), zap.Error(err))
				return nil
			}
			slots[i] = &FileEntry{
				AbsolutePath: absPath,
				RelativePath: rel,
				Content:      content,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	entries := make([]FileEntry, 0, len(slots))
	for _, entry := range slots {
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

// listFiles returns the slash-separated paths of all non-directory entries
// under root, sorted lexically. Unreadable sub-directories are skipped.
func listFiles(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == pruneDir {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func matchesInclude(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, path.Base(rel)); err == nil && ok {
			return true
		}
	}
	return false
}
