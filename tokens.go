package ctxpack

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultModel selects the reference vocabulary used for token counting.
const DefaultModel = "gpt-4"

// TokenCounter produces an exact token count or reports why it cannot.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// TiktokenCounter counts tokens with the BPE vocabulary of a model. The
// vocabulary is loaded on first use.
type TiktokenCounter struct {
	model string

	once     sync.Once
	encoding *tiktoken.Tiktoken
	err      error
}

// NewTiktokenCounter returns a counter for model, or DefaultModel when empty.
func NewTiktokenCounter(model string) *TiktokenCounter {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &TiktokenCounter{model: model}
}

// Model returns the model whose vocabulary is used.
func (c *TiktokenCounter) Model() string {
	return c.model
}

// CountTokens implements TokenCounter.
func (c *TiktokenCounter) CountTokens(text string) (count int, err error) {
	c.once.Do(func() {
		c.encoding, c.err = tiktoken.EncodingForModel(c.model)
		if c.err != nil {
			c.err = fmt.Errorf("failed to get tokenizer for model %q: %w", c.model, c.err)
		}
	})
	if c.err != nil {
		return 0, c.err
	}
	defer func() {
		if r := recover(); r != nil {
			count, err = 0, fmt.Errorf("tokenizer panic: %v", r)
		}
	}()
	return len(c.encoding.EncodeOrdinary(text)), nil
}

// EstimateTokens is the length-based estimate: one token per four characters,
// rounded up.
func EstimateTokens(text string) int {
	chars := utf8.RuneCountInString(text)
	return (chars + 3) / 4
}

// CountTokens counts text with counter and falls back to EstimateTokens on
// any failure. It never fails.
func CountTokens(counter TokenCounter, text string) int {
	count, _ := countTokens(counter, text)
	return count
}

func countTokens(counter TokenCounter, text string) (count int, err error) {
	if counter == nil {
		return EstimateTokens(text), nil
	}
	defer func() {
		if r := recover(); r != nil {
			count, err = EstimateTokens(text), fmt.Errorf("token counter panic: %v", r)
		}
	}()
	count, err = counter.CountTokens(text)
	if err != nil {
		return EstimateTokens(text), err
	}
	return count, nil
}
