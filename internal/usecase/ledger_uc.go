package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"horan-assistant-bot/internal/domain"
	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/domain/ports/repository"
	"horan-assistant-bot/internal/infra/logging"
	"horan-assistant-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// QuotaMode selects how Consume writes the new count back.
type QuotaMode string

const (
	// QuotaRacy loads, decides and writes unconditionally. Two concurrent consumes
	// may observe the same count and both be allowed.
	QuotaRacy QuotaMode = "racy"
	// QuotaAtomic conditions the write on the observed count and retries on conflict.
	QuotaAtomic QuotaMode = "atomic"
)

// PremiumMode selects how premium accounts are counted.
type PremiumMode string

const (
	PremiumBypass PremiumMode = "bypass" // allowed, nothing written
	PremiumRecord PremiumMode = "record" // counted, never denied
)

const (
	DefaultDailyCap = 10
	maxSwapAttempts = 5
)

// LedgerUseCase is the per-user daily quota ledger.
type LedgerUseCase interface {
	RegisterIfAbsent(ctx context.Context, tgID int64, displayName string)
	CanConsume(ctx context.Context, tgID int64) bool
	Consume(ctx context.Context, tgID int64) (model.QuotaResult, error)

	SetDefaultLanguage(ctx context.Context, tgID int64, lang string) error
	GetDefaultLanguage(ctx context.Context, tgID int64) string
	GetSettings(ctx context.Context, tgID int64) (*model.Settings, error)
	CountUsers(ctx context.Context) int

	GetUser(ctx context.Context, tgID int64) (*model.User, error)
	SetPremium(ctx context.Context, tgID int64, premium bool) (*model.User, error)
	DailyCap() int
	// UsedToday is the count that applies to u on the ledger's current day.
	UsedToday(u *model.User) int
}

type LedgerOptions struct {
	DailyCap int
	Mode     QuotaMode
	Premium  PremiumMode
	// Now is the clock used for day keys; defaults to time.Now.
	Now func() time.Time
}

type ledgerUC struct {
	users   repository.UserRepository
	cap     int
	mode    QuotaMode
	premium PremiumMode
	now     func() time.Time
	log     *zerolog.Logger
}

func NewLedgerUseCase(users repository.UserRepository, opts LedgerOptions, logger *zerolog.Logger) *ledgerUC {
	if opts.DailyCap <= 0 {
		opts.DailyCap = DefaultDailyCap
	}
	if opts.Mode == "" {
		opts.Mode = QuotaRacy
	}
	if opts.Premium == "" {
		opts.Premium = PremiumBypass
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ledgerUC{
		users:   users,
		cap:     opts.DailyCap,
		mode:    opts.Mode,
		premium: opts.Premium,
		now:     opts.Now,
		log:     logger,
	}
}

func (l *ledgerUC) DailyCap() int { return l.cap }

func (l *ledgerUC) today() string { return model.DayKey(l.now()) }

func (l *ledgerUC) UsedToday(u *model.User) int { return u.CountOn(l.today()) }

func storageErr(op string, tgID int64, err error) error {
	return fmt.Errorf("%s user %d: %w: %w", op, tgID, domain.ErrStorageUnavailable, err)
}

// RegisterIfAbsent creates the account on first sighting and keeps the display name current.
// Failures are logged and swallowed so event handling can continue.
func (l *ledgerUC) RegisterIfAbsent(ctx context.Context, tgID int64, displayName string) {
	defer logging.TraceDuration(l.log, "LedgerUC.RegisterIfAbsent")()
	log := logging.With(ctx, l.log)

	if tgID <= 0 || strings.TrimSpace(displayName) == "" {
		log.Warn().Int64("tg_id", tgID).Msg("register skipped: invalid id or empty display name")
		return
	}

	existing, err := l.users.FindByTelegramID(ctx, tgID)
	switch {
	case err == nil:
		if existing.Username == displayName {
			return
		}
		if err := l.users.UpdateUsername(ctx, tgID, displayName); err != nil {
			metrics.IncDBError("update_username")
			log.Error().Err(err).Int64("tg_id", tgID).Msg("failed to update display name")
		}
		return
	case !errors.Is(err, domain.ErrNotFound):
		metrics.IncDBError("find_user")
		log.Error().Err(err).Int64("tg_id", tgID).Msg("failed to load user for registration")
		return
	}

	u, err := model.NewUser(tgID, displayName, l.now())
	if err != nil {
		log.Warn().Err(err).Int64("tg_id", tgID).Msg("register skipped")
		return
	}
	created, err := l.users.Insert(ctx, u)
	if err != nil {
		metrics.IncDBError("insert_user")
		log.Error().Err(err).Int64("tg_id", tgID).Msg("failed to register user")
		return
	}
	if created {
		metrics.IncUsersRegistered()
		log.Info().Int64("tg_id", tgID).Msg("user registered")
	}
}

// CanConsume is a read-only precheck. It never writes and denies on any failure.
func (l *ledgerUC) CanConsume(ctx context.Context, tgID int64) bool {
	defer logging.TraceDuration(l.log, "LedgerUC.CanConsume")()

	u, err := l.users.FindByTelegramID(ctx, tgID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			metrics.IncDBError("find_user")
			logging.With(ctx, l.log).Error().Err(err).Int64("tg_id", tgID).Msg("can-consume check failed")
		}
		return false
	}
	if u.IsPremium {
		return true
	}
	return model.CanConsume(u, l.today(), l.cap)
}

// Consume spends one unit of today's quota.
// Denials are not errors; an error always comes with a deny result.
func (l *ledgerUC) Consume(ctx context.Context, tgID int64) (model.QuotaResult, error) {
	defer logging.TraceDuration(l.log, "LedgerUC.Consume")()
	log := logging.With(ctx, l.log)
	deny := model.QuotaResult{Cap: l.cap}

	for attempt := 1; ; attempt++ {
		u, err := l.users.FindByTelegramID(ctx, tgID)
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncQuotaDecision(string(l.mode), "unregistered")
			return deny, domain.ErrNotRegistered
		}
		if err != nil {
			metrics.IncDBError("find_user")
			metrics.IncQuotaDecision(string(l.mode), "error")
			log.Error().Err(err).Int64("tg_id", tgID).Msg("consume: load failed")
			return deny, storageErr("load", tgID, err)
		}

		today := l.today()
		var d model.QuotaDecision
		switch {
		case u.IsPremium && l.premium == PremiumBypass:
			metrics.IncQuotaDecision(string(l.mode), "premium")
			return model.QuotaResult{Allowed: true, CountAfter: u.CountOn(today), Premium: true, Cap: l.cap}, nil
		case u.IsPremium:
			d = model.DecideRecord(u, today)
		default:
			d = model.DecideConsume(u, today, l.cap)
		}

		if !d.Write {
			metrics.IncQuotaDecision(string(l.mode), "denied")
			return model.QuotaResult{Allowed: false, CountAfter: d.CountAfter, Cap: l.cap}, nil
		}

		res := model.QuotaResult{Allowed: true, CountAfter: d.CountAfter, Premium: u.IsPremium, Cap: l.cap}
		next := model.QuotaState{Count: d.CountAfter, Day: d.Day}

		if l.mode != QuotaAtomic {
			if err := l.users.SaveQuota(ctx, tgID, next); err != nil {
				metrics.IncDBError("save_quota")
				metrics.IncQuotaDecision(string(l.mode), "error")
				log.Error().Err(err).Int64("tg_id", tgID).Msg("consume: write failed")
				return deny, storageErr("save quota for", tgID, err)
			}
			metrics.IncQuotaDecision(string(l.mode), "allowed")
			return res, nil
		}

		swapped, err := l.users.SwapQuota(ctx, tgID, u.QuotaState(), next)
		if err != nil {
			metrics.IncDBError("swap_quota")
			metrics.IncQuotaDecision(string(l.mode), "error")
			log.Error().Err(err).Int64("tg_id", tgID).Msg("consume: conditional write failed")
			return deny, storageErr("swap quota for", tgID, err)
		}
		if swapped {
			metrics.IncQuotaDecision(string(l.mode), "allowed")
			return res, nil
		}
		if attempt >= maxSwapAttempts {
			metrics.IncQuotaCASExhausted()
			metrics.IncQuotaDecision(string(l.mode), "error")
			log.Warn().Int64("tg_id", tgID).Int("attempts", attempt).Msg("consume: giving up after repeated conflicts")
			return deny, fmt.Errorf("consume for user %d after %d attempts: %w", tgID, attempt, domain.ErrConcurrentUpdateLost)
		}
		metrics.IncQuotaCASRetry()
		log.Debug().Int64("tg_id", tgID).Int("attempt", attempt).Msg("consume: conflict, reloading")
	}
}

func (l *ledgerUC) SetDefaultLanguage(ctx context.Context, tgID int64, lang string) error {
	defer logging.TraceDuration(l.log, "LedgerUC.SetDefaultLanguage")()

	lang = strings.ToLower(strings.TrimSpace(lang))
	if !model.IsSupportedLanguage(lang) {
		return fmt.Errorf("language %q: %w", lang, domain.ErrInvalidArgument)
	}
	err := l.users.SetLanguage(ctx, tgID, lang)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotRegistered
	default:
		metrics.IncDBError("set_language")
		logging.With(ctx, l.log).Error().Err(err).Int64("tg_id", tgID).Msg("failed to set language")
		return storageErr("set language for", tgID, err)
	}
}

// GetDefaultLanguage never fails: missing account, empty value or store errors yield "en".
func (l *ledgerUC) GetDefaultLanguage(ctx context.Context, tgID int64) string {
	defer logging.TraceDuration(l.log, "LedgerUC.GetDefaultLanguage")()

	lang, err := l.users.GetLanguage(ctx, tgID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			metrics.IncDBError("get_language")
			logging.With(ctx, l.log).Warn().Err(err).Int64("tg_id", tgID).Msg("language lookup failed, using default")
		}
		return model.DefaultLanguage
	}
	if lang == "" {
		return model.DefaultLanguage
	}
	return lang
}

func (l *ledgerUC) GetSettings(ctx context.Context, tgID int64) (*model.Settings, error) {
	defer logging.TraceDuration(l.log, "LedgerUC.GetSettings")()

	u, err := l.GetUser(ctx, tgID)
	if err != nil {
		return nil, err
	}
	s := u.Snapshot()
	s.UsedToday = l.UsedToday(u)
	return &s, nil
}

// CountUsers returns 0 when the store cannot be read.
func (l *ledgerUC) CountUsers(ctx context.Context) int {
	defer logging.TraceDuration(l.log, "LedgerUC.CountUsers")()

	n, err := l.users.CountUsers(ctx)
	if err != nil {
		metrics.IncDBError("count_users")
		logging.With(ctx, l.log).Error().Err(err).Msg("failed to count users")
		return 0
	}
	return n
}

func (l *ledgerUC) GetUser(ctx context.Context, tgID int64) (*model.User, error) {
	u, err := l.users.FindByTelegramID(ctx, tgID)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.ErrNotRegistered
	default:
		metrics.IncDBError("find_user")
		return nil, storageErr("load", tgID, err)
	}
}

// SetPremium flips the premium flag. Turning it on stamps the subscription date once.
func (l *ledgerUC) SetPremium(ctx context.Context, tgID int64, premium bool) (*model.User, error) {
	defer logging.TraceDuration(l.log, "LedgerUC.SetPremium")()

	u, err := l.GetUser(ctx, tgID)
	if err != nil {
		return nil, err
	}
	u.SetPremium(premium, l.now())
	if err := l.users.SetPremium(ctx, tgID, u.IsPremium, u.SubscriptionDate); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotRegistered
		}
		metrics.IncDBError("set_premium")
		return nil, storageErr("set premium for", tgID, err)
	}
	logging.With(ctx, l.log).Info().Int64("tg_id", tgID).Bool("premium", premium).Msg("premium status changed")
	return u, nil
}
