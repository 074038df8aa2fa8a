package ai

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horan-assistant-bot/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.AIServiceAdapter for local/dev runs.
// It logs the prompt and answers with the last user message unchanged.
type NoopAIAdapter struct {
	log   zerolog.Logger
	delay time.Duration
}

func NewNoopAIAdapter(logger *zerolog.Logger) *NoopAIAdapter {
	return &NoopAIAdapter{
		log:   logger.With().Str("component", "noop-ai").Logger(),
		delay: 100 * time.Millisecond,
	}
}

func (a *NoopAIAdapter) CountTokens(_ context.Context, _ string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += approxTokens(m.Content)
	}
	return n, nil
}

func (a *NoopAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	a.log.Debug().Str("model", model).Int("messages", len(messages)).Msg("chat")

	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			return stripInstruction(messages[i].Content), nil
		}
	}
	return "", nil
}

// stripInstruction drops a leading "<instruction>: " so the echo looks like a result.
func stripInstruction(s string) string {
	if i := strings.Index(s, ": "); i >= 0 && i < 40 {
		return s[i+2:]
	}
	return s
}
