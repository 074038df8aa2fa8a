package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"horan-assistant-bot/internal/domain/ports/adapter"
)

// inlineMarkup converts button rows into a tgbotapi keyboard. A button with a
// URL opens the link, otherwise it sends Data; a button with neither sends its
// own label. Empty rows are skipped and nil is returned when nothing is left.
func inlineMarkup(rows [][]adapter.InlineButton) *tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, r)
	}
	if len(kbRows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &markup
}

// replyKeyboard is the persistent keyboard shown after /start, labelled in the
// user's language through t.
func replyKeyboard(t func(key string) string) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(t("kb_refresh")),
			tgbotapi.NewKeyboardButton(t("kb_change_language")),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(t("kb_help")),
			tgbotapi.NewKeyboardButton(t("kb_join_channel")),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(t("kb_main_menu")),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
