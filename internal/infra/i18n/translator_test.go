//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: Hello\nwelcome_user: Hello %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "Hello" {
			t.Errorf("wanted 'Hello', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Abebe"); got != "Hello Abebe" {
			t.Errorf("wanted 'Hello Abebe', got '%s'", got)
		}
	})
}

func TestBundle(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml":   {Data: []byte("hi: Hi\nbye: Bye")},
		"locales/fr.yaml":   {Data: []byte("hi: Salut")},
		"locales/notes.txt": {Data: []byte("ignored")},
	}
	b, err := NewBundle(fsys)
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}

	if got := b.For("fr").T("hi"); got != "Salut" {
		t.Errorf("wanted 'Salut', got '%s'", got)
	}
	if got := b.For("fr").T("bye"); got != "Bye" {
		t.Errorf("missing keys should fall back to en, got '%s'", got)
	}
	if got := b.For("om").T("hi"); got != "Hi" {
		t.Errorf("unknown languages should use en, got '%s'", got)
	}
}

func TestBundle_RequiresEnglish(t *testing.T) {
	_, err := NewBundle(fstest.MapFS{"locales/fr.yaml": {Data: []byte("hi: Salut")}})
	if err == nil {
		t.Fatal("expected an error when en.yaml is missing")
	}
}

func TestEmbeddedLocalesLoad(t *testing.T) {
	b, err := NewBundle(LocalesFS)
	if err != nil {
		t.Fatalf("embedded locales failed to load: %v", err)
	}
	en := b.For("en")
	for _, key := range []string{"welcome", "help", "limit_reached", "settings", "translated"} {
		if en.T(key) == key {
			t.Errorf("en.yaml is missing %q", key)
		}
	}
}

func TestBundle_Matches(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("kb_help: \"❓ Help\"")},
		"locales/fr.yaml": {Data: []byte("kb_help: \"❓ Aide\"")},
	}
	b, err := NewBundle(fsys)
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}
	if !b.Matches("kb_help", "❓ Aide") || !b.Matches("kb_help", " ❓ Help ") {
		t.Error("keyboard text in any language should match")
	}
	if b.Matches("kb_help", "help") || b.Matches("kb_help", "") {
		t.Error("unrelated text must not match")
	}
}
