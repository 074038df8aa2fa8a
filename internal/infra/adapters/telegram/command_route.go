package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"horan-assistant-bot/internal/application"
	"horan-assistant-bot/internal/infra/adapters/media"
	"horan-assistant-bot/internal/infra/logging"
	"horan-assistant-bot/internal/infra/metrics"
	"horan-assistant-bot/internal/usecase"
)

const maxPhotoBytes = 10 << 20

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":    r.handleStartCommand,
		"help":     r.handleHelpCommand,
		"settings": r.handleSettingsCommand,
		"language": r.handleLanguageCommand,

		"total_users": r.adminOnly(r.handleTotalUsersCommand),
	}
}

func (r *RealTelegramBotAdapter) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if _, isAdmin := r.adminIDsMap[message.From.ID]; !isAdmin {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return r.SendMessage(ctx, message.Chat.ID, r.facade.Text(ctx, message.From.ID, "admin_only"))
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(ctx, message)
	}
}

// keyboardRoutes maps reply keyboard labels (by message key) to handlers.
func (r *RealTelegramBotAdapter) keyboardRoutes() []struct {
	Key string
	Fn  commandHandler
} {
	return []struct {
		Key string
		Fn  commandHandler
	}{
		{"kb_refresh", r.handleRefresh},
		{"kb_change_language", r.handleLanguageCommand},
		{"kb_help", r.handleHelpCommand},
		{"kb_join_channel", r.handleJoinChannel},
		{"kb_main_menu", r.handleMainMenu},
	}
}

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.From == nil || m.Chat == nil {
		return nil
	}
	tgID := m.From.ID

	command := commandKey(m)
	if !r.allow(ctx, tgID, command) {
		return r.SendMessage(ctx, m.Chat.ID, r.facade.Text(ctx, tgID, "rate_limited"))
	}
	metrics.IncTelegramCommand(command)
	logging.With(logging.WithAction(ctx, command), r.log).Debug().
		Str("text", logging.Redact(m.Text, r.dev)).
		Msg("message received")

	if m.IsCommand() {
		if fn, ok := r.commandRoutes()[m.Command()]; ok {
			return fn(ctx, m)
		}
		return r.SendMessage(ctx, m.Chat.ID, r.facade.Text(ctx, tgID, "unknown_command"))
	}

	if len(m.Photo) > 0 {
		return r.handlePhoto(ctx, m)
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		return nil
	}
	for _, kr := range r.keyboardRoutes() {
		if r.facade.IsKeyboardText(kr.Key, text) {
			return kr.Fn(ctx, m)
		}
	}

	switch {
	case media.IsYouTubeLink(text):
		return r.startDownload(ctx, m.Chat.ID, tgID, usecase.ActionYouTubeAudio, text)
	case media.IsTikTokLink(text):
		return r.startDownload(ctx, m.Chat.ID, tgID, usecase.ActionTikTokVideo, text)
	}

	return r.send(ctx, m.Chat.ID, r.facade.ChooseAction(ctx, tgID, m.MessageID), m.MessageID)
}

// commandKey names the flood-limit bucket for a message.
func commandKey(m *tgbotapi.Message) string {
	switch {
	case m.IsCommand():
		return "/" + m.Command()
	case len(m.Photo) > 0:
		return "photo"
	case media.IsYouTubeLink(m.Text), media.IsTikTokLink(m.Text):
		return "link"
	default:
		return "message"
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, m *tgbotapi.Message) error {
	name := m.From.FirstName
	if name == "" {
		name = displayName(m.From)
	}
	welcome := r.facade.Welcome(ctx, m.From.ID, name)
	msg := tgbotapi.NewMessage(m.Chat.ID, welcome.Text)
	msg.ReplyMarkup = replyKeyboard(func(key string) string { return r.facade.Text(ctx, m.From.ID, key) })
	if _, err := r.bot.Send(msg); err != nil {
		return err
	}
	return r.send(ctx, m.Chat.ID, r.facade.MainMenu(ctx, m.From.ID), 0)
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, m *tgbotapi.Message) error {
	return r.send(ctx, m.Chat.ID, r.facade.Help(ctx, m.From.ID), 0)
}

func (r *RealTelegramBotAdapter) handleSettingsCommand(ctx context.Context, m *tgbotapi.Message) error {
	return r.send(ctx, m.Chat.ID, r.facade.Settings(ctx, m.From.ID), 0)
}

func (r *RealTelegramBotAdapter) handleLanguageCommand(ctx context.Context, m *tgbotapi.Message) error {
	return r.send(ctx, m.Chat.ID, r.facade.LanguageMenu(ctx, m.From.ID), 0)
}

func (r *RealTelegramBotAdapter) handleTotalUsersCommand(ctx context.Context, m *tgbotapi.Message) error {
	return r.send(ctx, m.Chat.ID, r.facade.TotalUsers(ctx, m.From.ID), 0)
}

func (r *RealTelegramBotAdapter) handleRefresh(ctx context.Context, m *tgbotapi.Message) error {
	return r.send(ctx, m.Chat.ID, r.facade.Refresh(ctx, m.From.ID), 0)
}

func (r *RealTelegramBotAdapter) handleJoinChannel(ctx context.Context, m *tgbotapi.Message) error {
	return r.send(ctx, m.Chat.ID, r.facade.JoinChannel(ctx, m.From.ID), 0)
}

func (r *RealTelegramBotAdapter) handleMainMenu(ctx context.Context, m *tgbotapi.Message) error {
	return r.send(ctx, m.Chat.ID, r.facade.MainMenu(ctx, m.From.ID), 0)
}

func (r *RealTelegramBotAdapter) handlePhoto(ctx context.Context, m *tgbotapi.Message) error {
	tgID := m.From.ID
	_ = r.SendMessage(ctx, m.Chat.ID, r.facade.Text(ctx, tgID, "processing"))

	// the last size is the largest
	photo := m.Photo[len(m.Photo)-1]
	data, err := r.downloadFile(ctx, photo.FileID)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("photo download failed")
		return r.send(ctx, m.Chat.ID, application.Reply{Text: r.facade.Text(ctx, tgID, "service_failed")}, m.MessageID)
	}
	return r.send(ctx, m.Chat.ID, r.facade.ExtractText(ctx, tgID, m.MessageID, data, "image/jpeg"), m.MessageID)
}

func (r *RealTelegramBotAdapter) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.files.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
}
