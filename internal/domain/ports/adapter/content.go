package adapter

import "context"

// Translator turns text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// GrammarFixer returns a corrected version of text.
type GrammarFixer interface {
	FixGrammar(ctx context.Context, text string) (string, error)
	// CountTokens measures text the way the backing model would.
	CountTokens(ctx context.Context, text string) (int, error)
}

// TextExtractor reads text out of an image.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte, mime string) (string, error)
}

type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// MediaFile is a downloaded file on local disk. The caller removes Path when done.
type MediaFile struct {
	Kind      MediaKind
	Path      string
	Title     string
	Thumbnail string
}

// MediaDownloader fetches the media behind a public link.
type MediaDownloader interface {
	Download(ctx context.Context, kind MediaKind, link string) (*MediaFile, error)
}
