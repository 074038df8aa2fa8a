package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"horan-assistant-bot/internal/application"
	"horan-assistant-bot/internal/config"
	"horan-assistant-bot/internal/domain/ports/adapter"
	"horan-assistant-bot/internal/infra/logging"
	"horan-assistant-bot/internal/infra/metrics"
	"horan-assistant-bot/internal/infra/ratelimit"
	red "horan-assistant-bot/internal/infra/redis"
	"horan-assistant-bot/internal/infra/worker"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter polls updates with tgbotapi and delegates to the facade.
type RealTelegramBotAdapter struct {
	bot    *tgbotapi.BotAPI
	cfg    *config.BotConfig
	facade application.Facade

	limiter  ratelimit.Limiter
	locker   red.Locker
	media    *worker.Pool
	mediaTTL time.Duration
	files    *http.Client

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	dev           bool
	cancelPolling context.CancelFunc
	log           *zerolog.Logger
}

type Deps struct {
	Facade  application.Facade
	Limiter ratelimit.Limiter
	Locker  red.Locker
	Media   *worker.Pool
	// MediaTimeout bounds one download; the per-user lock lives slightly longer.
	MediaTimeout time.Duration
	// Dev logs message text unredacted.
	Dev bool
}

// Dial connects to the Bot API and fills cfg.Username from the bot profile
// when it is not configured.
func Dial(cfg *config.BotConfig) (*tgbotapi.BotAPI, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	if cfg.Username == "" {
		cfg.Username = bot.Self.UserName
	}
	return bot, nil
}

func NewRealTelegramBotAdapter(bot *tgbotapi.BotAPI, cfg *config.BotConfig, deps Deps, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if bot == nil || cfg == nil {
		return nil, errors.New("bot api and config are required")
	}
	if deps.Facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if deps.Limiter == nil || deps.Locker == nil || deps.Media == nil {
		return nil, errors.New("limiter, locker and media pool are required")
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	ttl := deps.MediaTimeout
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	l := logger.With().Str("component", "telegram").Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        deps.Facade,
		limiter:       deps.Limiter,
		locker:        deps.Locker,
		media:         deps.Media,
		mediaTTL:      ttl,
		files:         &http.Client{Timeout: 30 * time.Second},
		adminIDsMap:   adminMap,
		updateWorkers: workers,
		dev:           deps.Dev,
		log:           &l,
	}, nil
}

// StartPolling blocks until ctx is cancelled. Updates are fanned out to a fixed
// set of workers so one slow user never holds up the others.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	r.log.Info().Str("bot", r.bot.Self.UserName).Int("workers", r.updateWorkers).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			select {
			case updateChan <- up:
			case <-ctx.Done():
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	return r.send(ctx, tgID, application.Reply{Text: text}, 0)
}

func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	return r.send(ctx, tgID, application.Reply{Text: text, Buttons: rows}, 0)
}

// send renders reply into chatID, optionally as a reply to replyTo.
func (r *RealTelegramBotAdapter) send(ctx context.Context, chatID int64, reply application.Reply, replyTo int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if strings.TrimSpace(reply.Text) == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ReplyToMessageID = replyTo
	msg.DisableWebPagePreview = true
	if kb := inlineMarkup(reply.Buttons); kb != nil {
		msg.ReplyMarkup = *kb
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	from := updateSender(update)
	if from == nil || from.IsBot {
		return nil
	}
	ctx = logging.WithTraceID(ctx, logging.NewTraceID())
	ctx = logging.WithTgID(ctx, from.ID)

	// every event keeps the account current before anything else
	r.facade.RegisterIfAbsent(ctx, from.ID, displayName(from))

	switch {
	case update.CallbackQuery != nil:
		return r.handleQuery(ctx, update.CallbackQuery)
	case update.InlineQuery != nil:
		return r.handleInline(ctx, update.InlineQuery)
	case update.Message != nil:
		return r.handleMessage(ctx, update.Message)
	}
	return nil
}

// allow applies the per-user, per-command flood limit. Limiter errors fail open.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, tgID int64, command string) bool {
	ok, err := r.limiter.Allow(ctx, red.UserCommandKey(tgID, command), r.cfg.CommandsPerMinute, time.Minute)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered(command)
	}
	return ok
}

func (r *RealTelegramBotAdapter) handleInline(ctx context.Context, q *tgbotapi.InlineQuery) error {
	if strings.TrimSpace(q.Query) == "" {
		return nil
	}
	if !r.allow(ctx, q.From.ID, "inline") {
		return nil
	}
	metrics.IncTelegramCommand("inline")

	articles := r.facade.Inline(ctx, q.From.ID, q.Query)
	results := make([]interface{}, 0, len(articles))
	for _, a := range articles {
		art := tgbotapi.NewInlineQueryResultArticle(a.ID+"-"+strconv.FormatInt(q.From.ID, 10), a.Title, a.Text)
		art.Description = a.Description
		results = append(results, art)
	}
	_, err := r.bot.Request(tgbotapi.InlineConfig{
		InlineQueryID: q.ID,
		Results:       results,
		CacheTime:     0,
		IsPersonal:    true,
	})
	return err
}

func updateSender(u tgbotapi.Update) *tgbotapi.User {
	switch {
	case u.Message != nil:
		return u.Message.From
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From
	case u.InlineQuery != nil:
		return u.InlineQuery.From
	}
	return nil
}

// displayName prefers the @username, then the first name, then a synthetic name.
func displayName(u *tgbotapi.User) string {
	if n := strings.TrimSpace(u.UserName); n != "" {
		return n
	}
	if n := strings.TrimSpace(u.FirstName); n != "" {
		return n
	}
	return "user" + strconv.FormatInt(u.ID, 10)
}
