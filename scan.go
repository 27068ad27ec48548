package ctxpack

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// NoTextFilesMessage is the failure message when nothing survives resolution.
const NoTextFilesMessage = "No valid text files found"

// ErrNoTextFiles is returned by ScanResult.Err for NoTextFilesMessage.
var ErrNoTextFiles = errors.New("no valid text files found")

// Options configures one scan. The zero value scans with DefaultRules, the
// DefaultModel tokenizer, one reader per CPU and no logging.
type Options struct {
	// Rules seed every directory's ruleset. Nil patterns mean DefaultRules.
	Rules Rules
	// Exclude patterns are appended after each root's ignore file.
	Exclude []string
	// Include restricts directory scans to paths matching one of these globs.
	Include []string
	// Concurrency bounds parallel file reads within a directory.
	Concurrency int
	// TokenCounter overrides the tiktoken counter built from Model.
	TokenCounter TokenCounter
	Model        string
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Rules.Patterns == nil {
		o.Rules = DefaultRules
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.NumCPU()
	}
	return o
}

// ScanStats are derived from the aggregated document.
type ScanStats struct {
	TotalFiles  int `json:"totalFiles" yaml:"totalFiles"`
	TotalTokens int `json:"totalTokens" yaml:"totalTokens"`
	TotalChars  int `json:"totalChars" yaml:"totalChars"`
}

// ScanResult is the outcome of Scan: either a success carrying the document
// or a failure carrying only Message.
type ScanResult struct {
	Status   string            `json:"status" yaml:"status"`
	Message  string            `json:"message,omitempty" yaml:"message,omitempty"`
	Content  string            `json:"content" yaml:"content"`
	FileList []string          `json:"fileList" yaml:"fileList"`
	Stats    ScanStats         `json:"stats" yaml:"stats"`
	Warnings []SecurityWarning `json:"warnings" yaml:"warnings"`
}

// OK reports whether the scan succeeded.
func (r ScanResult) OK() bool {
	return r.Status == StatusSuccess
}

// Err returns nil for a success and an error carrying Message otherwise.
func (r ScanResult) Err() error {
	switch {
	case r.OK():
		return nil
	case r.Message == NoTextFilesMessage:
		return ErrNoTextFiles
	default:
		return errors.New(r.Message)
	}
}

func failed(message string) ScanResult {
	return ScanResult{
		Status:   StatusFailed,
		Message:  message,
		FileList: []string{},
		Warnings: []SecurityWarning{},
	}
}

type scanState int

const (
	stateIdle scanState = iota
	stateResolving
	stateAggregating
	stateCounting
	stateSuccess
	stateFailed
)

func (s scanState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateResolving:
		return "resolving"
	case stateAggregating:
		return "aggregating"
	case stateCounting:
		return "counting"
	case stateSuccess:
		return "success"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("scanState(%d)", int(s))
	}
}

// Scan runs the whole pipeline over inputPaths. It never panics and never
// returns a partial result: per-path problems are absorbed, anything else
// becomes a failed result.
func Scan(ctx context.Context, inputPaths []string, opts Options) (result ScanResult) {
	opts = opts.withDefaults()
	logger := opts.Logger
	transition := func(s scanState) {
		logger.Debug("scan state", zap.Stringer("state", s))
	}
	transition(stateIdle)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("scan panicked", zap.Any("panic", r))
			result = failed(fmt.Sprint(r))
		}
		if result.OK() {
			transition(stateSuccess)
		} else {
			transition(stateFailed)
		}
	}()

	transition(stateResolving)
	entries, err := Resolve(ctx, inputPaths, opts)
	if err != nil {
		return failed(err.Error())
	}
	if len(entries) == 0 {
		return failed(NoTextFilesMessage)
	}

	transition(stateAggregating)
	content := Aggregate(entries)

	transition(stateCounting)
	counter := opts.TokenCounter
	if counter == nil {
		counter = NewTiktokenCounter(opts.Model)
	}

	var (
		tokens   int
		warnings []SecurityWarning
		group    errgroup.Group
	)
	group.Go(func() (err error) {
		defer recoverInto(&err)
		var countErr error
		tokens, countErr = countTokens(counter, content)
		if countErr != nil {
			logger.Debug("token counting fell back to estimate", zap.Error(countErr))
		}
		return nil
	})
	group.Go(func() (err error) {
		defer recoverInto(&err)
		warnings = ScanSecrets(entries)
		return nil
	})
	if err := group.Wait(); err != nil {
		return failed(err.Error())
	}

	fileList := make([]string, len(entries))
	for i, entry := range entries {
		fileList[i] = entry.RelativePath
	}

	return ScanResult{
		Status:   StatusSuccess,
		Content:  content,
		FileList: fileList,
		Stats: ScanStats{
			TotalFiles:  len(entries),
			TotalTokens: tokens,
			TotalChars:  utf8.RuneCountInString(content),
		},
		Warnings: warnings,
	}
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%v", r)
	}
}
