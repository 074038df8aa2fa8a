// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"horan-assistant-bot/internal/domain/ports/adapter"
	"horan-assistant-bot/internal/infra/metrics"
)

var (
	_ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)
	_ adapter.TextExtractor    = (*GeminiAdapter)(nil)
)

const ocrPrompt = "Extract all readable text from this image. Reply with the text only."

type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
	maxOut       int
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string, maxOut int) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(defaultModel, "gpt") || defaultModel == "" {
		defaultModel = "gemini-2.0-flash"
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel, maxOut: maxOut}, nil
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	// CountTokens takes []*genai.Content, not parts.
	resp, err := g.client.Models.CountTokens(ctx, modelOrDefault(model, g.defaultModel), toGenAIContents(messages), nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

func (g *GeminiAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("gemini: no messages")
	}
	return g.generate(ctx, modelOrDefault(model, g.defaultModel), toGenAIContents(messages))
}

// ExtractText runs the image through the vision model and returns the text it reads.
func (g *GeminiAdapter) ExtractText(ctx context.Context, image []byte, mime string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("gemini: empty image")
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	parts := []*genai.Part{
		genai.NewPartFromText(ocrPrompt),
		genai.NewPartFromBytes(image, mime),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	return g.generate(ctx, g.defaultModel, contents)
}

func (g *GeminiAdapter) generate(ctx context.Context, model string, contents []*genai.Content) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if g.maxOut > 0 {
		cfg.MaxOutputTokens = int32(g.maxOut)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		metrics.ObserveAICall("gemini", model, 0, latency, false)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	tokensIn := 0
	if resp.UsageMetadata != nil {
		tokensIn = int(resp.UsageMetadata.PromptTokenCount)
	}
	metrics.ObserveAICall("gemini", model, tokensIn, latency, true)
	return strings.TrimSpace(resp.Text()), nil
}

func toGenAIContents(msgs []adapter.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		// Gemini has no system role in history; system text goes in as a user turn.
		role := genai.Role(genai.RoleUser)
		if r := strings.ToLower(m.Role); r == "assistant" || r == "model" {
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{
			Role:  string(role),
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}
