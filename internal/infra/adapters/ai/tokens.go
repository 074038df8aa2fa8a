package ai

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"horan-assistant-bot/internal/domain/ports/adapter"
)

const fallbackEncoding = "cl100k_base"

// TokenCounter counts prompt tokens with the BPE encoding of the target model.
// Encodings are loaded lazily and cached per model. When no encoding can be
// loaded (offline, unknown model) it falls back to a rune based estimate.
type TokenCounter struct {
	mu   sync.Mutex
	encs map[string]*tiktoken.Tiktoken

	// load is swapped in tests to avoid fetching BPE ranks.
	load func(model string) (*tiktoken.Tiktoken, error)
}

func NewTokenCounter() *TokenCounter {
	return &TokenCounter{
		encs: make(map[string]*tiktoken.Tiktoken),
		load: loadEncoding,
	}
}

func loadEncoding(model string) (*tiktoken.Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return enc, nil
	}
	return tiktoken.GetEncoding(fallbackEncoding)
}

func (c *TokenCounter) encoding(model string) *tiktoken.Tiktoken {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encs[model]; ok {
		return enc
	}
	enc, err := c.load(model)
	if err != nil {
		enc = nil
	}
	// nil is cached too so a missing encoding is not retried on every call.
	c.encs[model] = enc
	return enc
}

// Count returns the token count of text for model.
func (c *TokenCounter) Count(model, text string) int {
	if text == "" {
		return 0
	}
	if enc := c.encoding(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return approxTokens(text)
}

// CountMessages sums the content of every message plus a small per-message overhead.
func (c *TokenCounter) CountMessages(_ context.Context, model string, msgs []adapter.Message) int {
	total := 0
	for _, m := range msgs {
		total += c.Count(model, m.Content) + 4
	}
	if total > 0 {
		total += 2
	}
	return total
}

// approxTokens estimates roughly four characters per token, never fewer than
// one token per whitespace separated word.
func approxTokens(text string) int {
	n := (utf8.RuneCountInString(text) + 3) / 4
	if w := len(strings.Fields(text)); w > n {
		n = w
	}
	return n
}
