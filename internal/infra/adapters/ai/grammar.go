package ai

import (
	"context"
	"errors"
	"strings"

	"horan-assistant-bot/internal/domain/ports/adapter"
)

var _ adapter.GrammarFixer = (*GrammarService)(nil)

const grammarPrompt = "Fix grammar for: "

// GrammarService asks the configured model to correct the grammar of a text.
type GrammarService struct {
	ai    adapter.AIServiceAdapter
	model string
}

func NewGrammarService(ai adapter.AIServiceAdapter, model string) *GrammarService {
	return &GrammarService{ai: ai, model: model}
}

func (g *GrammarService) prompt(text string) []adapter.Message {
	return []adapter.Message{{Role: "user", Content: grammarPrompt + text}}
}

func (g *GrammarService) FixGrammar(ctx context.Context, text string) (string, error) {
	out, err := g.ai.Chat(ctx, g.model, g.prompt(text))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("grammar: empty completion")
	}
	return out, nil
}

// CountTokens counts the user's text only, without the instruction prefix.
func (g *GrammarService) CountTokens(ctx context.Context, text string) (int, error) {
	return g.ai.CountTokens(ctx, g.model, []adapter.Message{{Role: "user", Content: text}})
}
