// File: internal/infra/adapters/ocr/http_ocr.go
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"horan-assistant-bot/internal/domain/ports/adapter"
)

var _ adapter.TextExtractor = (*HTTPExtractor)(nil)

// HTTPExtractor posts raw image bytes to an OCR service that answers {"text": "..."}.
type HTTPExtractor struct {
	url    string
	client *http.Client
}

func NewHTTPExtractor(url string, timeout time.Duration) (*HTTPExtractor, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("ocr: empty url")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPExtractor{url: url, client: &http.Client{Timeout: timeout}}, nil
}

type ocrResponse struct {
	Text string `json:"text"`
}

func (e *HTTPExtractor) ExtractText(ctx context.Context, image []byte, mime string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("ocr: empty image")
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(image))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mime)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ocr: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ocr: decode: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}
