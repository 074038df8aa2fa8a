package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"horan-assistant-bot/internal/application"
	"horan-assistant-bot/internal/infra/logging"
	"horan-assistant-bot/internal/infra/metrics"
)

type cbHandler func(ctx context.Context, q *tgbotapi.CallbackQuery, data string) error

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

// Exact-match callbacks
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"settings":        r.settingsCBRoute,
		"change_language": r.changeLanguageCBRoute,
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: "translate:", Fn: r.translateCBRoute},
		{Prefix: "grammar_fix:", Fn: r.grammarFixCBRoute},
		{Prefix: "delete:", Fn: r.deleteCBRoute},
		{Prefix: "set_language_", Fn: r.setLanguageCBRoute},
		{Prefix: "menu:", Fn: r.menuCBRoute},
	}
}

// resolveCallback finds the handler for data. Exact matches win over prefixes.
func (r *RealTelegramBotAdapter) resolveCallback(data string) (cbHandler, string, bool) {
	if fn, ok := r.cbRoutes()[data]; ok {
		return fn, data, true
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn, pr.Prefix, true
		}
	}
	return nil, "", false
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	// stop the client spinner whatever happens
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(q.ID, "")) }()

	if q.Message == nil || q.Message.Chat == nil {
		return nil
	}
	data := strings.TrimSpace(q.Data)
	fn, route, ok := r.resolveCallback(data)
	if !ok {
		logging.With(ctx, r.log).Warn().Str("data", data).Msg("unknown callback data")
		return nil
	}
	if !r.allow(ctx, q.From.ID, "cb:"+route) {
		return r.SendMessage(ctx, q.Message.Chat.ID, r.facade.Text(ctx, q.From.ID, "rate_limited"))
	}
	metrics.IncTelegramCommand("cb:" + route)
	return fn(logging.WithAction(ctx, route), q, data)
}

func (r *RealTelegramBotAdapter) settingsCBRoute(ctx context.Context, q *tgbotapi.CallbackQuery, _ string) error {
	return r.send(ctx, q.Message.Chat.ID, r.facade.Settings(ctx, q.From.ID), 0)
}

func (r *RealTelegramBotAdapter) changeLanguageCBRoute(ctx context.Context, q *tgbotapi.CallbackQuery, _ string) error {
	return r.send(ctx, q.Message.Chat.ID, r.facade.LanguageMenu(ctx, q.From.ID), 0)
}

func (r *RealTelegramBotAdapter) setLanguageCBRoute(ctx context.Context, q *tgbotapi.CallbackQuery, data string) error {
	code := strings.TrimPrefix(data, "set_language_")
	return r.send(ctx, q.Message.Chat.ID, r.facade.SetLanguage(ctx, q.From.ID, code), 0)
}

func (r *RealTelegramBotAdapter) menuCBRoute(ctx context.Context, q *tgbotapi.CallbackQuery, data string) error {
	return r.send(ctx, q.Message.Chat.ID, r.facade.MenuHint(ctx, q.From.ID, strings.TrimPrefix(data, "menu:")), 0)
}

// deleteCBRoute removes the bot message that carries the button and, when
// still present, the user message it answered.
func (r *RealTelegramBotAdapter) deleteCBRoute(ctx context.Context, q *tgbotapi.CallbackQuery, data string) error {
	chatID := q.Message.Chat.ID
	if _, err := r.bot.Request(tgbotapi.NewDeleteMessage(chatID, q.Message.MessageID)); err != nil {
		return err
	}
	if orig, ok := deleteTarget(data); ok {
		if _, err := r.bot.Request(tgbotapi.NewDeleteMessage(chatID, orig)); err != nil {
			logging.With(ctx, r.log).Debug().Err(err).Int("message_id", orig).Msg("original message not deleted")
		}
	}
	return nil
}

func deleteTarget(data string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimPrefix(data, "delete:"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (r *RealTelegramBotAdapter) translateCBRoute(ctx context.Context, q *tgbotapi.CallbackQuery, _ string) error {
	orig, ok := originalText(q)
	if !ok {
		return r.send(ctx, q.Message.Chat.ID, application.Reply{Text: r.facade.Text(ctx, q.From.ID, "original_missing")}, 0)
	}
	return r.send(ctx, q.Message.Chat.ID, r.facade.Translate(ctx, q.From.ID, orig.MessageID, orig.Text), orig.MessageID)
}

func (r *RealTelegramBotAdapter) grammarFixCBRoute(ctx context.Context, q *tgbotapi.CallbackQuery, _ string) error {
	orig, ok := originalText(q)
	if !ok {
		return r.send(ctx, q.Message.Chat.ID, application.Reply{Text: r.facade.Text(ctx, q.From.ID, "original_missing")}, 0)
	}
	return r.send(ctx, q.Message.Chat.ID, r.facade.GrammarFix(ctx, q.From.ID, orig.MessageID, orig.Text), orig.MessageID)
}

// originalText returns the user message the action prompt replied to.
func originalText(q *tgbotapi.CallbackQuery) (*tgbotapi.Message, bool) {
	if q.Message == nil || q.Message.ReplyToMessage == nil {
		return nil, false
	}
	orig := q.Message.ReplyToMessage
	if strings.TrimSpace(orig.Text) == "" {
		return nil, false
	}
	return orig, true
}
