package prompt

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// EstimateTokens approximates the token count of a string with a fixed
// 4-characters-per-token ratio. All budget checks use this estimate;
// it is a soft limit, not a tokenizer.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// CutRunes cuts s to at most n bytes without splitting a UTF-8 rune.
func CutRunes(s string, n int) string {
	if n >= len(s) {
		return s
	}
	if n < 0 {
		n = 0
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Counter provides exact token counts for response metadata. Budget
// math deliberately stays on the estimate so budgets behave the same
// with or without a tokenizer available.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter creates a Counter for the given model, falling back to the
// cl100k_base encoding when the model is unknown.
func NewCounter(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Counter{enc: enc}, nil
}

// Count returns the exact token count for a string.
func (c *Counter) Count(s string) int {
	return len(c.enc.Encode(s, nil, nil))
}
