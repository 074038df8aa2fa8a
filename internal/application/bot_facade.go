package application

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"horan-assistant-bot/internal/domain"
	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/domain/ports/adapter"
	"horan-assistant-bot/internal/infra/i18n"
	"horan-assistant-bot/internal/usecase"
)

var _ Facade = (*BotFacade)(nil)

// Reply is a localized chat message with optional inline buttons.
type Reply struct {
	Text    string
	Buttons [][]adapter.InlineButton
}

// InlineArticle is one result row of an inline query.
type InlineArticle struct {
	ID          string
	Title       string
	Description string
	Text        string
}

// BotFacade composes the ledger and the content pipeline into chat replies.
// It returns rendered text so the Telegram adapter only forwards it.
type BotFacade struct {
	Ledger  usecase.LedgerUseCase
	Content usecase.ContentUseCase

	bundle      *i18n.Bundle
	channelURL  string
	botUsername string
	log         *zerolog.Logger
}

type FacadeOptions struct {
	ChannelURL  string
	BotUsername string
}

func NewBotFacade(ledger usecase.LedgerUseCase, content usecase.ContentUseCase, bundle *i18n.Bundle, opts FacadeOptions, logger *zerolog.Logger) *BotFacade {
	return &BotFacade{
		Ledger:      ledger,
		Content:     content,
		bundle:      bundle,
		channelURL:  opts.ChannelURL,
		botUsername: opts.BotUsername,
		log:         logger,
	}
}

// Translator returns the strings of the user's default language.
func (b *BotFacade) Translator(ctx context.Context, tgID int64) *i18n.Translator {
	return b.bundle.For(b.Ledger.GetDefaultLanguage(ctx, tgID))
}

// IsKeyboardText reports whether text is the reply keyboard label for key in any language.
func (b *BotFacade) IsKeyboardText(key, text string) bool {
	return b.bundle.Matches(key, text)
}

func (b *BotFacade) Welcome(ctx context.Context, tgID int64, name string) Reply {
	return Reply{Text: b.Translator(ctx, tgID).T("welcome", name)}
}

func (b *BotFacade) MainMenu(ctx context.Context, tgID int64) Reply {
	tr := b.Translator(ctx, tgID)
	return Reply{
		Text: tr.T("menu_main"),
		Buttons: [][]adapter.InlineButton{
			{
				{Text: tr.T("btn_translate"), Data: "menu:translate"},
				{Text: tr.T("btn_grammar_fix"), Data: "menu:grammar_fix"},
			},
			{{Text: tr.T("btn_download_mp3"), Data: "menu:download_mp3"}},
			{{Text: tr.T("btn_download_video"), Data: "menu:download_video"}},
			{{Text: tr.T("btn_extract_text"), Data: "menu:extract_text"}},
			{{Text: tr.T("btn_settings"), Data: "settings"}},
		},
	}
}

// MenuHint explains what to send for a main-menu action.
func (b *BotFacade) MenuHint(ctx context.Context, tgID int64, action string) Reply {
	switch action {
	case "translate", "grammar_fix", "download_mp3", "download_video", "extract_text":
		return Reply{Text: b.Translator(ctx, tgID).T("menu_hint_" + action)}
	}
	return b.MainMenu(ctx, tgID)
}

func (b *BotFacade) Help(ctx context.Context, tgID int64) Reply {
	return Reply{Text: b.Translator(ctx, tgID).T("help", b.botUsername, b.Ledger.DailyCap())}
}

func (b *BotFacade) Refresh(ctx context.Context, tgID int64) Reply {
	tr := b.Translator(ctx, tgID)
	return Reply{
		Text:    tr.T("refresh_ok"),
		Buttons: [][]adapter.InlineButton{{{Text: tr.T("btn_settings"), Data: "settings"}}},
	}
}

func (b *BotFacade) JoinChannel(ctx context.Context, tgID int64) Reply {
	tr := b.Translator(ctx, tgID)
	if b.channelURL == "" {
		return b.MainMenu(ctx, tgID)
	}
	return Reply{
		Text:    tr.T("join_channel", b.channelURL),
		Buttons: [][]adapter.InlineButton{{{Text: tr.T("btn_join_channel"), URL: b.channelURL}}},
	}
}

func (b *BotFacade) Settings(ctx context.Context, tgID int64) Reply {
	tr := b.Translator(ctx, tgID)
	s, err := b.Ledger.GetSettings(ctx, tgID)
	if err != nil {
		return b.errorReply(tr, err)
	}
	premium := tr.T("premium_no")
	if s.IsPremium {
		premium = tr.T("premium_yes")
	}
	return Reply{
		Text: tr.T("settings", model.LanguageName(s.DefaultLanguage), s.UsedToday, b.Ledger.DailyCap(), premium),
		Buttons: [][]adapter.InlineButton{
			{{Text: tr.T("btn_change_language"), Data: "change_language"}},
		},
	}
}

// LanguageMenu lists the supported languages two per row.
func (b *BotFacade) LanguageMenu(ctx context.Context, tgID int64) Reply {
	tr := b.Translator(ctx, tgID)
	rows := make([][]adapter.InlineButton, 0, (len(model.SupportedLanguages)+1)/2)
	for i, l := range model.SupportedLanguages {
		btn := adapter.InlineButton{Text: l.Name, Data: "set_language_" + l.Code}
		if i%2 == 0 {
			rows = append(rows, []adapter.InlineButton{btn})
		} else {
			rows[len(rows)-1] = append(rows[len(rows)-1], btn)
		}
	}
	return Reply{Text: tr.T("choose_language"), Buttons: rows}
}

func (b *BotFacade) SetLanguage(ctx context.Context, tgID int64, code string) Reply {
	if err := b.Ledger.SetDefaultLanguage(ctx, tgID, code); err != nil {
		tr := b.Translator(ctx, tgID)
		if errors.Is(err, domain.ErrInvalidArgument) {
			return Reply{Text: tr.T("language_invalid")}
		}
		return b.errorReply(tr, err)
	}
	// confirm in the newly chosen language
	tr := b.bundle.For(code)
	return Reply{Text: tr.T("language_set", model.LanguageName(code))}
}

func (b *BotFacade) TotalUsers(ctx context.Context, tgID int64) Reply {
	return Reply{Text: b.Translator(ctx, tgID).T("total_users", b.Ledger.CountUsers(ctx))}
}

// ChooseAction offers Translate / Fix Grammar for the user's message msgID.
func (b *BotFacade) ChooseAction(ctx context.Context, tgID int64, msgID int) Reply {
	tr := b.Translator(ctx, tgID)
	id := strconv.Itoa(msgID)
	return Reply{
		Text: tr.T("choose_action"),
		Buttons: [][]adapter.InlineButton{{
			{Text: tr.T("btn_translate"), Data: "translate:" + id},
			{Text: tr.T("btn_grammar_fix"), Data: "grammar_fix:" + id},
		}},
	}
}

// Translate, GrammarFix and ExtractText answer the user's message msgID; the
// result carries a delete button referencing it.
func (b *BotFacade) Translate(ctx context.Context, tgID int64, msgID int, text string) Reply {
	return b.runText(ctx, msgID, usecase.ContentRequest{TelegramID: tgID, Action: usecase.ActionTranslate, Text: text})
}

func (b *BotFacade) GrammarFix(ctx context.Context, tgID int64, msgID int, text string) Reply {
	return b.runText(ctx, msgID, usecase.ContentRequest{TelegramID: tgID, Action: usecase.ActionGrammarFix, Text: text})
}

func (b *BotFacade) ExtractText(ctx context.Context, tgID int64, msgID int, image []byte, mime string) Reply {
	return b.runText(ctx, msgID, usecase.ContentRequest{TelegramID: tgID, Action: usecase.ActionOCR, Image: image, MIME: mime})
}

func (b *BotFacade) runText(ctx context.Context, msgID int, req usecase.ContentRequest) Reply {
	res, err := b.Content.Run(ctx, req)
	tr := b.Translator(ctx, req.TelegramID)
	if r, done := b.denied(tr, res, err); done {
		return r
	}

	var body string
	switch req.Action {
	case usecase.ActionTranslate:
		body = tr.T("translated", model.LanguageName(res.Target), res.Text)
	case usecase.ActionGrammarFix:
		body = tr.T("grammar_fixed", res.Text)
	case usecase.ActionOCR:
		if strings.TrimSpace(res.Text) == "" {
			body = tr.T("ocr_empty")
		} else {
			body = tr.T("ocr_result", res.Text)
		}
	}
	return Reply{
		Text:    body + b.creditsLine(tr, res.Quota),
		Buttons: [][]adapter.InlineButton{{{Text: tr.T("btn_delete"), Data: "delete:" + strconv.Itoa(msgID)}}},
	}
}

// Download runs a media action. The returned file is nil whenever the reply
// should be sent instead.
func (b *BotFacade) Download(ctx context.Context, tgID int64, action usecase.Action, link string) (*adapter.MediaFile, Reply) {
	res, err := b.Content.Run(ctx, usecase.ContentRequest{TelegramID: tgID, Action: action, Text: link})
	tr := b.Translator(ctx, tgID)
	if errors.Is(err, domain.ErrServiceUnavailable) {
		return nil, Reply{Text: tr.T("download_failed")}
	}
	if r, done := b.denied(tr, res, err); done {
		return nil, r
	}
	if res.Media == nil {
		return nil, Reply{Text: tr.T("download_failed")}
	}
	return res.Media, Reply{Text: strings.TrimPrefix(b.creditsLine(tr, res.Quota), "\n\n")}
}

// Inline builds the inline-query previews. Nothing is consumed; an exhausted
// user gets a single explanatory row.
func (b *BotFacade) Inline(ctx context.Context, tgID int64, query string) []InlineArticle {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	tr := b.Translator(ctx, tgID)
	var out []InlineArticle

	tres, err := b.Content.Preview(ctx, usecase.ContentRequest{TelegramID: tgID, Action: usecase.ActionTranslate, Text: query})
	if err == nil && !tres.Allowed() {
		return []InlineArticle{{
			ID:          "limit",
			Title:       tr.T("inline_limit_title"),
			Description: tr.T("limit_reached", b.Ledger.DailyCap()),
			Text:        tr.T("inline_limit_text"),
		}}
	}
	if err == nil {
		out = append(out, InlineArticle{
			ID:          "translate",
			Title:       tr.T("inline_translate_title", model.LanguageName(tres.Target)),
			Description: tres.Text,
			Text:        tr.T("translated", model.LanguageName(tres.Target), tres.Text),
		})
	} else {
		b.log.Warn().Err(err).Int64("tg_id", tgID).Msg("inline translate failed")
	}

	gres, err := b.Content.Preview(ctx, usecase.ContentRequest{TelegramID: tgID, Action: usecase.ActionGrammarFix, Text: query})
	if err == nil && gres.Allowed() {
		out = append(out, InlineArticle{
			ID:          "grammar_fix",
			Title:       tr.T("inline_grammar_title"),
			Description: gres.Text,
			Text:        gres.Text,
		})
	} else if err != nil {
		b.log.Warn().Err(err).Int64("tg_id", tgID).Msg("inline grammar fix failed")
	}
	return out
}

// denied maps quota denial and pipeline errors to a reply. done is false only
// for a successful run.
func (b *BotFacade) denied(tr *i18n.Translator, res *usecase.ContentResult, err error) (Reply, bool) {
	if err != nil {
		return b.errorReply(tr, err), true
	}
	if res.Allowed() {
		return Reply{}, false
	}
	return b.limitReply(tr), true
}

func (b *BotFacade) limitReply(tr *i18n.Translator) Reply {
	dailyCap := b.Ledger.DailyCap()
	if b.channelURL == "" {
		return Reply{Text: tr.T("limit_reached", dailyCap)}
	}
	return Reply{
		Text:    tr.T("limit_reached_channel", dailyCap, b.channelURL),
		Buttons: [][]adapter.InlineButton{{{Text: tr.T("btn_join_channel"), URL: b.channelURL}}},
	}
}

func (b *BotFacade) errorReply(tr *i18n.Translator, err error) Reply {
	switch {
	case errors.Is(err, domain.ErrNotRegistered):
		return Reply{Text: tr.T("not_registered")}
	case errors.Is(err, domain.ErrInputTooLong):
		return Reply{Text: tr.T("input_too_long")}
	case errors.Is(err, domain.ErrInvalidArgument):
		return Reply{Text: tr.T("original_missing")}
	default:
		return Reply{Text: tr.T("service_failed")}
	}
}

func (b *BotFacade) creditsLine(tr *i18n.Translator, q model.QuotaResult) string {
	if q.Premium {
		return ""
	}
	return "\n\n" + tr.T("credits_left", q.Remaining())
}

// RegisterIfAbsent records the sender before any handling.
func (b *BotFacade) RegisterIfAbsent(ctx context.Context, tgID int64, displayName string) {
	b.Ledger.RegisterIfAbsent(ctx, tgID, displayName)
}

// Text renders a single message key in the user's language.
func (b *BotFacade) Text(ctx context.Context, tgID int64, key string, args ...interface{}) string {
	return b.Translator(ctx, tgID).T(key, args...)
}
