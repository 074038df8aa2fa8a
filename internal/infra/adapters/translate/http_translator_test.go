//go:build !integration

package translate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horan-assistant-bot/internal/infra/adapters/translate"
)

func TestTranslate_QueryAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "hello & bye", r.URL.Query().Get("q"))
		assert.Equal(t, "fr", r.URL.Query().Get("target"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translatedText":"bonjour%20et%20au%20revoir"}`))
	}))
	defer srv.Close()

	tr, err := translate.NewHTTPTranslator(srv.URL, time.Second)
	require.NoError(t, err)

	out, err := tr.Translate(context.Background(), "hello & bye", "fr")
	require.NoError(t, err)
	assert.Equal(t, "bonjour et au revoir", out)
}

func TestTranslate_DecodeKeepsPlus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translatedText":"C++%20et%202+2=4"}`))
	}))
	defer srv.Close()

	tr, err := translate.NewHTTPTranslator(srv.URL, time.Second)
	require.NoError(t, err)
	out, err := tr.Translate(context.Background(), "C++ and 2+2=4", "fr")
	require.NoError(t, err)
	assert.Equal(t, "C++ et 2+2=4", out)
}

func TestTranslate_InvalidEscapeKeepsRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translatedText":"100% sure"}`))
	}))
	defer srv.Close()

	tr, err := translate.NewHTTPTranslator(srv.URL, time.Second)
	require.NoError(t, err)
	out, err := tr.Translate(context.Background(), "x", "en")
	require.NoError(t, err)
	assert.Equal(t, "100% sure", out)
}

func TestTranslate_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr, err := translate.NewHTTPTranslator(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = tr.Translate(context.Background(), "x", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTranslate_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	tr, err := translate.NewHTTPTranslator(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = tr.Translate(context.Background(), "x", "en")
	require.Error(t, err)
}

func TestNewHTTPTranslator_RequiresURL(t *testing.T) {
	_, err := translate.NewHTTPTranslator(" ", 0)
	require.Error(t, err)
}
