package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"horan-assistant-bot/internal/domain/ports/adapter"
	"horan-assistant-bot/internal/infra/logging"
	red "horan-assistant-bot/internal/infra/redis"
	"horan-assistant-bot/internal/usecase"
)

const maxThumbBytes = 200 << 10

// startDownload takes the per-user media lock and queues the download on the
// media pool. A second link from the same user while one is running is refused.
func (r *RealTelegramBotAdapter) startDownload(ctx context.Context, chatID, tgID int64, action usecase.Action, link string) error {
	key := red.MediaLockKey(tgID)
	token, err := r.locker.TryLock(ctx, key, r.mediaTTL+time.Minute)
	if errors.Is(err, red.ErrLocked) {
		return r.SendMessage(ctx, chatID, r.facade.Text(ctx, tgID, "download_busy"))
	}
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("media lock failed")
		return r.SendMessage(ctx, chatID, r.facade.Text(ctx, tgID, "service_failed"))
	}

	_ = r.SendMessage(ctx, chatID, r.facade.Text(ctx, tgID, "downloading"))

	traceID := logging.TraceID(ctx)
	submitErr := r.media.Submit(func(poolCtx context.Context) error {
		jobCtx, cancel := context.WithTimeout(logging.WithTgID(logging.WithTraceID(poolCtx, traceID), tgID), r.mediaTTL)
		defer cancel()
		// unlock with a fresh context so a timed-out job still releases the key
		defer func() { _ = r.locker.Unlock(context.Background(), key, token) }()
		return r.runDownload(jobCtx, chatID, tgID, action, link)
	})
	if submitErr != nil {
		_ = r.locker.Unlock(ctx, key, token)
		logging.With(ctx, r.log).Warn().Err(submitErr).Msg("media queue rejected job")
		return r.SendMessage(ctx, chatID, r.facade.Text(ctx, tgID, "download_busy"))
	}
	return nil
}

func (r *RealTelegramBotAdapter) runDownload(ctx context.Context, chatID, tgID int64, action usecase.Action, link string) error {
	file, reply := r.facade.Download(ctx, tgID, action, link)
	if file == nil {
		return r.send(ctx, chatID, reply, 0)
	}
	// the file is ours to remove whether or not the upload works
	defer func() {
		if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
			logging.With(ctx, r.log).Warn().Err(err).Str("path", file.Path).Msg("media cleanup failed")
		}
	}()

	_ = r.SendMessage(ctx, chatID, r.facade.Text(ctx, tgID, "uploading"))

	var msg tgbotapi.Chattable
	switch file.Kind {
	case adapter.MediaAudio:
		audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(file.Path))
		audio.Title = file.Title
		audio.Caption = reply.Text
		if thumb := r.fetchThumbnail(ctx, file.Thumbnail); thumb != nil {
			audio.Thumb = *thumb
		}
		msg = audio
	default:
		video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(file.Path))
		video.Caption = file.Title + "\n\n" + reply.Text
		video.SupportsStreaming = true
		msg = video
	}
	if _, err := r.bot.Send(msg); err != nil {
		_ = r.SendMessage(ctx, chatID, r.facade.Text(ctx, tgID, "download_failed"))
		return err
	}
	return nil
}

// fetchThumbnail downloads a small preview image; nil on any failure.
// Telegram only accepts uploaded thumbnails, not URLs.
func (r *RealTelegramBotAdapter) fetchThumbnail(ctx context.Context, url string) *tgbotapi.FileBytes {
	if url == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := r.files.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbBytes))
	if err != nil || len(b) == 0 {
		return nil
	}
	return &tgbotapi.FileBytes{Name: "thumb.jpg", Bytes: b}
}
