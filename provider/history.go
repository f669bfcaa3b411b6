package provider

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/councilflow/councilflow/types"
)

// HistoryRenderer turns a transcript into prompt text for LLM-backed
// providers, trimming oldest entries first to stay inside a token
// budget. Token counting uses tiktoken when the encoding is available
// and falls back to a byte-length estimate otherwise, so rendering
// never fails offline.
type HistoryRenderer struct {
	budget   int
	encoding string

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewHistoryRenderer creates a renderer with the given token budget.
// A budget <= 0 disables trimming.
func NewHistoryRenderer(budget int) *HistoryRenderer {
	return &HistoryRenderer{
		budget:   budget,
		encoding: "cl100k_base",
	}
}

func (r *HistoryRenderer) init() error {
	r.once.Do(func() {
		enc, err := tiktoken.GetEncoding(r.encoding)
		if err != nil {
			r.initErr = fmt.Errorf("init tiktoken encoding %s: %w", r.encoding, err)
			return
		}
		r.enc = enc
	})
	return r.initErr
}

// CountTokens counts tokens in text, estimating at ~4 bytes per token
// when the tiktoken encoding cannot be initialized.
func (r *HistoryRenderer) CountTokens(text string) int {
	if err := r.init(); err != nil {
		return (utf8.RuneCountInString(text) + 3) / 4
	}
	return len(r.enc.Encode(text, nil, nil))
}

// Render formats the transcript oldest-first, dropping the oldest
// entries until the result fits the token budget. The most recent
// opinion is always kept even if it alone exceeds the budget.
func (r *HistoryRenderer) Render(history []types.Opinion) string {
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, len(history))
	for i, op := range history {
		lines[i] = formatOpinion(&op)
	}

	if r.budget <= 0 {
		return strings.Join(lines, "\n")
	}

	start := 0
	for start < len(lines)-1 {
		text := strings.Join(lines[start:], "\n")
		if r.CountTokens(text) <= r.budget {
			break
		}
		start++
	}
	return strings.Join(lines[start:], "\n")
}

func formatOpinion(op *types.Opinion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[round %d] %s voted %s", op.Round, op.ReviewerID, op.Vote)
	if op.Score != nil {
		fmt.Fprintf(&b, " (score %.0f/100)", *op.Score)
	}
	if op.Reasoning != "" {
		fmt.Fprintf(&b, ": %s", op.Reasoning)
	}
	if len(op.Concerns) > 0 {
		fmt.Fprintf(&b, " [concerns: %s]", strings.Join(op.Concerns, "; "))
	}
	return b.String()
}
