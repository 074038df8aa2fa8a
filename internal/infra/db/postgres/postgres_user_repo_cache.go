package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/domain/ports/repository"
	"horan-assistant-bot/internal/infra/metrics"
	red "horan-assistant-bot/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches the default-language lookup, the hottest read on the
// translate path. Quota state is never cached: the conditional write depends on fresh reads.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &userRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func languageKey(tgID int64) string { return fmt.Sprintf("user:lang:%d", tgID) }

func (d *userRepoCacheDecorator) GetLanguage(ctx context.Context, tgID int64) (string, error) {
	key := languageKey(tgID)
	val, err := d.cache.Get(ctx, key)
	if err == nil && val != "" {
		metrics.IncCacheRequest("user_language", "hit")
		return val, nil
	}
	if err != nil && !errors.Is(err, red.Nil) {
		metrics.IncCacheRequest("user_language", "error")
	} else {
		metrics.IncCacheRequest("user_language", "miss")
	}

	lang, err := d.inner.GetLanguage(ctx, tgID)
	if err != nil {
		return "", err
	}
	if lang != "" {
		_ = d.cache.Set(ctx, key, lang, d.ttl)
	}
	return lang, nil
}

// SetLanguage drops the cached value once the row holds the new language.
func (d *userRepoCacheDecorator) SetLanguage(ctx context.Context, tgID int64, lang string) error {
	if err := d.inner.SetLanguage(ctx, tgID, lang); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, languageKey(tgID))
	return nil
}

// Pass-through methods that don't need caching
func (d *userRepoCacheDecorator) Insert(ctx context.Context, u *model.User) (bool, error) {
	return d.inner.Insert(ctx, u)
}

func (d *userRepoCacheDecorator) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return d.inner.FindByTelegramID(ctx, tgID)
}

func (d *userRepoCacheDecorator) UpdateUsername(ctx context.Context, tgID int64, username string) error {
	return d.inner.UpdateUsername(ctx, tgID, username)
}

func (d *userRepoCacheDecorator) SaveQuota(ctx context.Context, tgID int64, next model.QuotaState) error {
	return d.inner.SaveQuota(ctx, tgID, next)
}

func (d *userRepoCacheDecorator) SwapQuota(ctx context.Context, tgID int64, prev, next model.QuotaState) (bool, error) {
	return d.inner.SwapQuota(ctx, tgID, prev, next)
}

func (d *userRepoCacheDecorator) SetPremium(ctx context.Context, tgID int64, premium bool, since *time.Time) error {
	return d.inner.SetPremium(ctx, tgID, premium, since)
}

func (d *userRepoCacheDecorator) CountUsers(ctx context.Context) (int, error) {
	return d.inner.CountUsers(ctx)
}
