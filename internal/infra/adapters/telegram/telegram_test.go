//go:build !integration

package telegram

import (
	"context"
	"io"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horan-assistant-bot/internal/config"
	"horan-assistant-bot/internal/domain/ports/adapter"
)

func TestInlineMarkup(t *testing.T) {
	kb := inlineMarkup([][]adapter.InlineButton{
		{{Text: "Join", URL: "https://t.me/x"}, {Text: "Delete", Data: "delete:5"}},
		{},
		{{Text: " "}},
	})
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)

	join := kb.InlineKeyboard[0][0]
	require.NotNil(t, join.URL)
	assert.Equal(t, "https://t.me/x", *join.URL)

	del := kb.InlineKeyboard[0][1]
	require.NotNil(t, del.CallbackData)
	assert.Equal(t, "delete:5", *del.CallbackData)

	fallback := kb.InlineKeyboard[1][0]
	assert.Equal(t, "•", fallback.Text)
	assert.Equal(t, "•", *fallback.CallbackData)

	assert.Nil(t, inlineMarkup(nil))
	assert.Nil(t, inlineMarkup([][]adapter.InlineButton{{}}))
}

func TestReplyKeyboard(t *testing.T) {
	kb := replyKeyboard(func(key string) string { return "<" + key + ">" })
	require.Len(t, kb.Keyboard, 3)
	assert.Equal(t, "<kb_refresh>", kb.Keyboard[0][0].Text)
	assert.Equal(t, "<kb_join_channel>", kb.Keyboard[1][1].Text)
	assert.Equal(t, "<kb_main_menu>", kb.Keyboard[2][0].Text)
	assert.True(t, kb.ResizeKeyboard)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "abebe", displayName(&tgbotapi.User{ID: 1, UserName: "abebe", FirstName: "Abebe"}))
	assert.Equal(t, "Abebe", displayName(&tgbotapi.User{ID: 1, FirstName: "Abebe"}))
	assert.Equal(t, "user42", displayName(&tgbotapi.User{ID: 42}))
}

func TestUpdateSender(t *testing.T) {
	u := &tgbotapi.User{ID: 7}
	assert.Same(t, u, updateSender(tgbotapi.Update{Message: &tgbotapi.Message{From: u}}))
	assert.Same(t, u, updateSender(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{From: u}}))
	assert.Same(t, u, updateSender(tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{From: u}}))
	assert.Nil(t, updateSender(tgbotapi.Update{}))
}

func TestCommandKey(t *testing.T) {
	cmd := &tgbotapi.Message{
		Text:     "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}
	assert.Equal(t, "/start", commandKey(cmd))
	assert.Equal(t, "photo", commandKey(&tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "f"}}}))
	assert.Equal(t, "link", commandKey(&tgbotapi.Message{Text: "https://youtu.be/dQw4w9WgXcQ"}))
	assert.Equal(t, "message", commandKey(&tgbotapi.Message{Text: "hello"}))
}

func TestResolveCallback(t *testing.T) {
	r := &RealTelegramBotAdapter{}
	cases := map[string]string{
		"settings":          "settings",
		"change_language":   "change_language",
		"translate:12":      "translate:",
		"grammar_fix:12":    "grammar_fix:",
		"delete:3":          "delete:",
		"set_language_am":   "set_language_",
		"menu:extract_text": "menu:",
	}
	for data, route := range cases {
		fn, got, ok := r.resolveCallback(data)
		require.True(t, ok, data)
		assert.NotNil(t, fn)
		assert.Equal(t, route, got)
	}
	_, _, ok := r.resolveCallback("subscribe")
	assert.False(t, ok)
}

func TestDeleteTarget(t *testing.T) {
	id, ok := deleteTarget("delete:42")
	require.True(t, ok)
	assert.Equal(t, 42, id)

	_, ok = deleteTarget("delete:")
	assert.False(t, ok)
	_, ok = deleteTarget("delete:0")
	assert.False(t, ok)
	_, ok = deleteTarget("delete:abc")
	assert.False(t, ok)
}

func TestOriginalText(t *testing.T) {
	q := &tgbotapi.CallbackQuery{Message: &tgbotapi.Message{
		ReplyToMessage: &tgbotapi.Message{MessageID: 9, Text: "hola"},
	}}
	m, ok := originalText(q)
	require.True(t, ok)
	assert.Equal(t, 9, m.MessageID)

	_, ok = originalText(&tgbotapi.CallbackQuery{Message: &tgbotapi.Message{}})
	assert.False(t, ok)
	_, ok = originalText(&tgbotapi.CallbackQuery{Message: &tgbotapi.Message{ReplyToMessage: &tgbotapi.Message{}}})
	assert.False(t, ok)
}

func TestNoopBotAdapter(t *testing.T) {
	logger := zerolog.New(io.Discard)
	b := NewNoopBotAdapter(&logger)
	require.NoError(t, b.SendMessage(context.Background(), 1, "hi"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, b.SendButtons(ctx, 1, "hi", nil))
}

func TestNewRealTelegramBotAdapterValidates(t *testing.T) {
	logger := zerolog.New(io.Discard)
	cfg := &config.BotConfig{}

	_, err := NewRealTelegramBotAdapter(nil, cfg, Deps{}, &logger)
	assert.Error(t, err)

	_, err = NewRealTelegramBotAdapter(&tgbotapi.BotAPI{}, cfg, Deps{}, &logger)
	assert.Error(t, err)
}
