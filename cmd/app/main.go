// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"horan-assistant-bot/internal/application"
	"horan-assistant-bot/internal/config"
	"horan-assistant-bot/internal/domain/ports/adapter"
	"horan-assistant-bot/internal/domain/ports/repository"
	aiAdapters "horan-assistant-bot/internal/infra/adapters/ai"
	"horan-assistant-bot/internal/infra/adapters/media"
	"horan-assistant-bot/internal/infra/adapters/ocr"
	tele "horan-assistant-bot/internal/infra/adapters/telegram"
	"horan-assistant-bot/internal/infra/adapters/translate"
	"horan-assistant-bot/internal/infra/db/memory"
	pg "horan-assistant-bot/internal/infra/db/postgres"
	"horan-assistant-bot/internal/infra/db/sqlite"
	adminhttp "horan-assistant-bot/internal/infra/http"
	"horan-assistant-bot/internal/infra/i18n"
	"horan-assistant-bot/internal/infra/logging"
	"horan-assistant-bot/internal/infra/metrics"
	"horan-assistant-bot/internal/infra/ratelimit"
	red "horan-assistant-bot/internal/infra/redis"
	"horan-assistant-bot/internal/infra/sched"
	"horan-assistant-bot/internal/infra/worker"
	"horan-assistant-bot/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, in-memory store)")
	mintFor := flag.String("mint-admin-token", "", "print an admin API token for this subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -mint-admin-token")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if *mintFor != "" {
		if err := mintAdminToken(os.Stdout, cfg.Admin, *mintFor, *tokenTTL); err != nil {
			fmt.Fprintf(os.Stderr, "mint admin token: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Redis (optional) ----
	var redisClient *red.Client
	if cfg.HasRedis() {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
	}

	// ---- User store ----
	users, closeStore := openUserStore(ctx, cfg, redisClient, logger)
	defer closeStore()

	// ---- Flood limit and media locks ----
	var limiter ratelimit.Limiter
	var locker red.Locker
	if redisClient != nil {
		limiter = red.NewRateLimiter(redisClient)
		locker = red.NewLocker(redisClient)
	} else {
		mem := ratelimit.NewMemory(10 * time.Minute)
		go mem.RunCleanup(ctx, time.Minute)
		limiter = mem
		locker = red.NewLocalLocker()
	}

	// ---- Content services ----
	ai := newAI(ctx, cfg, logger)
	grammar := aiAdapters.NewGrammarService(aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit), cfg.AI.DefaultModel)

	translator, err := translate.NewHTTPTranslator(cfg.Translate.URL, cfg.Translate.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("translator")
	}

	var extractor adapter.TextExtractor
	switch cfg.OCR.Provider {
	case "gemini":
		extractor, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
	default:
		extractor, err = ocr.NewHTTPExtractor(cfg.OCR.URL, cfg.OCR.Timeout)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.OCR.Provider).Msg("ocr")
	}

	downloader, err := media.NewHTTPDownloader(media.Endpoints{
		YouTube: cfg.Media.YouTubeURL,
		TikTok:  cfg.Media.TikTokURL,
	}, cfg.Media.DownloadsDir, cfg.Media.Timeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("media downloader")
	}

	// ---- Use cases ----
	ledger := usecase.NewLedgerUseCase(users, usecase.LedgerOptions{
		DailyCap: cfg.Quota.DailyCap,
		Mode:     usecase.QuotaMode(cfg.Quota.Mode),
		Premium:  usecase.PremiumMode(cfg.Quota.PremiumMode),
	}, logger)
	content := usecase.NewContentUseCase(ledger, usecase.ContentServices{
		Translator: translator,
		Grammar:    grammar,
		OCR:        extractor,
		Media:      downloader,
	}, cfg.AI.MaxInputTokens, logger)

	bundle, err := i18n.NewBundle(i18n.LocalesFS)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Workers ----
	mediaPool := worker.NewPool("media", cfg.Media.Workers, logger)
	mediaPool.Start(ctx)
	defer mediaPool.Stop()

	janitor := sched.NewMediaJanitor(cfg.Media.DownloadsDir, cfg.Media.MaxAge, 0, logger)
	go func() { _ = janitor.Run(ctx) }()

	// ---- Telegram ----
	var bot adapter.TelegramBotAdapter
	var polling *tele.RealTelegramBotAdapter
	if cfg.Bot.Mode == "noop" {
		bot = tele.NewNoopBotAdapter(logger)
	} else {
		api, err := tele.Dial(&cfg.Bot)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		facade := application.NewBotFacade(ledger, content, bundle, application.FacadeOptions{
			ChannelURL:  cfg.Bot.ChannelURL,
			BotUsername: cfg.Bot.Username,
		}, logger)
		polling, err = tele.NewRealTelegramBotAdapter(api, &cfg.Bot, tele.Deps{
			Facade:       facade,
			Limiter:      limiter,
			Locker:       locker,
			Media:        mediaPool,
			MediaTimeout: cfg.Media.Timeout,
			Dev:          cfg.Runtime.Dev,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		bot = polling
		go func() {
			if err := polling.StartPolling(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}
	notifyAdmins(ctx, bot, cfg.Bot.AdminIDs, logger)

	// ---- Admin HTTP ----
	admin := adminhttp.NewServer(cfg.Admin, ledger, logger)
	go func() {
		if err := admin.Start(); err != nil {
			logger.Error().Err(err).Msg("admin http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	if polling != nil {
		polling.StopPolling()
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin http shutdown")
	}
	cancel()
}

// openUserStore picks the row store by database.driver. The returned func
// releases it.
func openUserStore(ctx context.Context, cfg *config.Config, cache *red.Client, logger *zerolog.Logger) (repository.UserRepository, func()) {
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		if err := pg.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("postgres migrate")
		}
		go pg.ReportPoolStats(ctx, pool, 15*time.Second)

		var users repository.UserRepository = pg.NewUserRepo(pool)
		if cache != nil {
			users = pg.NewUserRepoCacheDecorator(users, cache, cfg.Redis.TTL)
		}
		logger.Info().Str("driver", "postgres").Msg("user store ready")
		return users, pool.Close
	case "sqlite":
		repo, err := sqlite.Open(cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite")
		}
		logger.Info().Str("driver", "sqlite").Str("path", cfg.Database.URL).Msg("user store ready")
		return repo, func() { _ = repo.Close() }
	default:
		logger.Warn().Msg("in-memory user store: data is lost on restart")
		return memory.NewUserRepo(), func() {}
	}
}

func newAI(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) adapter.AIServiceAdapter {
	switch cfg.AI.Provider {
	case "openai":
		ai, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: OpenAI")
		return ai
	case "gemini":
		ai, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("base", cfg.AI.GeminiURL).Msg("AI adapter: Gemini")
		return ai
	default:
		logger.Warn().Msg("AI adapter: noop (grammar fix echoes input)")
		return aiAdapters.NewNoopAIAdapter(logger)
	}
}

// mintAdminToken writes a bearer token for the admin API signed with admin.jwt_secret.
func mintAdminToken(w io.Writer, cfg config.AdminConfig, subject string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	tok, err := adminhttp.NewAuthManager(cfg.JWTSecret).Mint(subject, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, tok)
	return err
}

func notifyAdmins(ctx context.Context, bot adapter.TelegramBotAdapter, adminIDs []int64, logger *zerolog.Logger) {
	msg := fmt.Sprintf("Horan %s (%s) started", version, commit)
	for _, id := range adminIDs {
		if err := bot.SendMessage(ctx, id, msg); err != nil {
			logger.Warn().Err(err).Int64("tg_id", id).Msg("admin notify failed")
		}
	}
}
