package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

const fallbackLang = "en"

// Translator holds the strings of one language. Missing keys resolve through the fallback.
type Translator struct {
	lang         string
	translations map[string]string
	fallback     *Translator
}

// Bundle is the set of loaded languages.
type Bundle struct {
	byLang map[string]*Translator
}

// NewBundle loads every locales/<lang>.yaml file in fsys. An en.yaml file is required.
func NewBundle(fsys fs.FS) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, "locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	b := &Bundle{byLang: make(map[string]*Translator)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		lang := strings.TrimSuffix(e.Name(), ".yaml")
		data, err := fs.ReadFile(fsys, path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read translation file %s: %w", e.Name(), err)
		}
		t, err := newTranslatorFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		t.lang = lang
		b.byLang[lang] = t
	}
	en, ok := b.byLang[fallbackLang]
	if !ok {
		return nil, fmt.Errorf("locales: %s.yaml is required", fallbackLang)
	}
	for lang, t := range b.byLang {
		if lang != fallbackLang {
			t.fallback = en
		}
	}
	return b, nil
}

// For returns the translator for lang, or the fallback language when lang is not loaded.
func (b *Bundle) For(lang string) *Translator {
	if t, ok := b.byLang[lang]; ok {
		return t
	}
	return b.byLang[fallbackLang]
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) Lang() string { return t.lang }

// T (Translate) formats the string for key; unknown keys come back unchanged.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		if t.fallback != nil {
			return t.fallback.T(key, args...)
		}
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Matches reports whether text equals the string for key in any loaded language.
// Reply keyboard presses arrive as plain text in the sender's language.
func (b *Bundle) Matches(key, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, t := range b.byLang {
		if s, ok := t.translations[key]; ok && s == text {
			return true
		}
	}
	return false
}
