package ctxpack

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// IgnoreFileName is the project-local ignore file read from each scan root.
const IgnoreFileName = ".gitignore"

// Rules is an ordered, versioned list of gitignore-style patterns.
type Rules struct {
	Version  int
	Patterns []string
}

// DefaultRules are always applied before the project's ignore file.
var DefaultRules = Rules{
	Version: 1,
	Patterns: []string{
		".git",
		"node_modules",
		"dist",
		"build",
		"coverage",
		".idea",
		".vscode",
		"*.lock",
		"*.log",
		".DS_Store",
		"*.png",
		"*.jpg",
		"*.exe",
		"*.bin",
		".env",
	},
}

// With returns a copy of r with extra patterns appended after the existing ones.
func (r Rules) With(patterns ...string) Rules {
	merged := make([]string, 0, len(r.Patterns)+len(patterns))
	merged = append(merged, r.Patterns...)
	merged = append(merged, patterns...)
	return Rules{Version: r.Version, Patterns: merged}
}

// RuleSet is the effective exclusion ruleset for one scan root.
type RuleSet struct {
	patterns []string
	rules    []rule
}

// rule is one compiled pattern. Negation is tracked here so that a later
// rule can flip the outcome of an earlier one for the same path.
type rule struct {
	matcher *ignore.GitIgnore
	negate  bool
	dirOnly bool
}

func compileRule(line string) (rule, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return rule{}, false
	}
	r := rule{}
	if strings.HasPrefix(trimmed, "!") {
		r.negate = true
		trimmed = trimmed[1:]
	}
	r.dirOnly = strings.HasSuffix(trimmed, "/")
	r.matcher = ignore.CompileIgnoreLines(trimmed)
	return r, true
}

func (r rule) matches(p string, isDir bool) bool {
	if r.matcher.MatchesPath(p) {
		return true
	}
	return isDir && r.dirOnly && r.matcher.MatchesPath(p+"/")
}

// BuildRuleSet seeds a ruleset with base, then appends the lines of the
// root's ignore file in file order, then extra. A missing or unreadable
// ignore file leaves the ruleset with base and extra only.
func BuildRuleSet(root string, base Rules, extra []string, logger *zap.Logger) *RuleSet {
	if logger == nil {
		logger = zap.NewNop()
	}

	patterns := append([]string{}, base.Patterns...)

	ignorePath := filepath.Join(root, IgnoreFileName)
	data, err := os.ReadFile(ignorePath)
	switch {
	case err == nil:
		for _, line := range strings.Split(string(data), "\n") {
			patterns = append(patterns, strings.TrimRight(line, "\r"))
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		logger.Debug("ignore file unreadable, using defaults",
			zap.String("path", ignorePath), zap.Error(err))
	}

	patterns = append(patterns, extra...)

	rules := make([]rule, 0, len(patterns))
	for _, pattern := range patterns {
		if r, ok := compileRule(pattern); ok {
			rules = append(rules, r)
		}
	}
	return &RuleSet{patterns: patterns, rules: rules}
}

// Patterns returns the effective patterns in evaluation order.
func (rs *RuleSet) Patterns() []string {
	return append([]string{}, rs.patterns...)
}

// IsExcluded reports whether relPath, relative to the scan root, is excluded.
// A path under an excluded directory stays excluded even when a later
// pattern negates the path itself, as in git.
func (rs *RuleSet) IsExcluded(relPath string) bool {
	if rs == nil || len(rs.rules) == 0 {
		return false
	}
	rel := strings.Trim(filepath.ToSlash(relPath), "/")
	if rel == "" {
		return false
	}
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' && rs.excluded(rel[:i], true) {
			return true
		}
	}
	return rs.excluded(rel, false)
}

// excluded applies the rules in order to a single path. The last matching
// rule decides.
func (rs *RuleSet) excluded(p string, isDir bool) bool {
	excluded := false
	for _, r := range rs.rules {
		if r.matches(p, isDir) {
			excluded = !r.negate
		}
	}
	return excluded
}
