//go:build !integration

package ocr_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horan-assistant-bot/internal/infra/adapters/ocr"
)

func TestExtractText_PostsImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, b)
		_, _ = w.Write([]byte(`{"text":"  Hello\nWorld \n"}`))
	}))
	defer srv.Close()

	ex, err := ocr.NewHTTPExtractor(srv.URL, time.Second)
	require.NoError(t, err)
	out, err := ex.ExtractText(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", out)
}

func TestExtractText_EmptyImage(t *testing.T) {
	ex, err := ocr.NewHTTPExtractor("http://127.0.0.1:1", time.Second)
	require.NoError(t, err)
	_, err = ex.ExtractText(context.Background(), nil, "image/png")
	require.Error(t, err)
}

func TestExtractText_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ex, err := ocr.NewHTTPExtractor(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = ex.ExtractText(context.Background(), []byte("img"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
