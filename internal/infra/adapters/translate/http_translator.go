// File: internal/infra/adapters/translate/http_translator.go
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"horan-assistant-bot/internal/domain/ports/adapter"
)

var _ adapter.Translator = (*HTTPTranslator)(nil)

// HTTPTranslator calls a translation endpoint of the form
// GET <base>?q=<text>&target=<lang> answering {"translatedText": "..."}.
type HTTPTranslator struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTranslator(baseURL string, timeout time.Duration) (*HTTPTranslator, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("translate: empty url")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPTranslator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

func (t *HTTPTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return "", fmt.Errorf("translate: parse url: %w", err)
	}
	q := u.Query()
	q.Set("q", text)
	q.Set("target", target)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("translate: decode: %w", err)
	}
	// Some backends percent-encode the result.
	decoded, err := url.PathUnescape(out.TranslatedText)
	if err != nil {
		decoded = out.TranslatedText
	}
	return decoded, nil
}
