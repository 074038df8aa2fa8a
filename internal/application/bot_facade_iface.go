package application

import (
	"context"

	"horan-assistant-bot/internal/domain/ports/adapter"
	"horan-assistant-bot/internal/usecase"
)

// Facade is the surface the Telegram adapter talks to. Every method returns a
// reply ready to send; failures are already rendered as user-facing text.
type Facade interface {
	RegisterIfAbsent(ctx context.Context, tgID int64, displayName string)
	IsKeyboardText(key, text string) bool

	Welcome(ctx context.Context, tgID int64, name string) Reply
	MainMenu(ctx context.Context, tgID int64) Reply
	MenuHint(ctx context.Context, tgID int64, action string) Reply
	Help(ctx context.Context, tgID int64) Reply
	Refresh(ctx context.Context, tgID int64) Reply
	JoinChannel(ctx context.Context, tgID int64) Reply
	Settings(ctx context.Context, tgID int64) Reply
	LanguageMenu(ctx context.Context, tgID int64) Reply
	SetLanguage(ctx context.Context, tgID int64, code string) Reply
	TotalUsers(ctx context.Context, tgID int64) Reply
	Text(ctx context.Context, tgID int64, key string, args ...interface{}) string

	ChooseAction(ctx context.Context, tgID int64, msgID int) Reply
	Translate(ctx context.Context, tgID int64, msgID int, text string) Reply
	GrammarFix(ctx context.Context, tgID int64, msgID int, text string) Reply
	ExtractText(ctx context.Context, tgID int64, msgID int, image []byte, mime string) Reply
	Download(ctx context.Context, tgID int64, action usecase.Action, link string) (*adapter.MediaFile, Reply)
	Inline(ctx context.Context, tgID int64, query string) []InlineArticle
}
