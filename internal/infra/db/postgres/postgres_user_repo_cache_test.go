//go:build !integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"horan-assistant-bot/internal/domain"
	"horan-assistant-bot/internal/domain/model"
	red "horan-assistant-bot/internal/infra/redis"
)

func TestUserRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()

	t.Run("GetLanguage should fetch from DB and set cache on miss", func(t *testing.T) {
		innerCalls := 0
		var setKey, setVal string
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return "", red.Nil
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				setKey, setVal = key, value.(string)
				return nil
			},
		}
		inner := &mockInnerUserRepo{
			GetLanguageFunc: func(ctx context.Context, tgID int64) (string, error) {
				innerCalls++
				return "am", nil
			},
		}

		lang, err := NewUserRepoCacheDecorator(inner, mockRedis, time.Minute).GetLanguage(ctx, 42)

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lang != "am" || innerCalls != 1 {
			t.Errorf("expected inner lookup returning am, got %q after %d calls", lang, innerCalls)
		}
		if setKey != "user:lang:42" || setVal != "am" {
			t.Errorf("cache not warmed: %q=%q", setKey, setVal)
		}
	})

	t.Run("GetLanguage should return cached value without touching DB", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "fr", nil },
		}
		inner := &mockInnerUserRepo{
			GetLanguageFunc: func(ctx context.Context, tgID int64) (string, error) {
				t.Fatal("inner repository must not be called on a hit")
				return "", nil
			},
		}

		lang, err := NewUserRepoCacheDecorator(inner, mockRedis, time.Minute).GetLanguage(ctx, 42)
		if err != nil || lang != "fr" {
			t.Fatalf("expected cached fr, got %q, %v", lang, err)
		}
	})

	t.Run("SetLanguage should invalidate the cache key after the write", func(t *testing.T) {
		var calls []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				calls = append(calls, "del:"+keys[0])
				return nil
			},
		}
		inner := &mockInnerUserRepo{
			SetLanguageFunc: func(ctx context.Context, tgID int64, lang string) error {
				calls = append(calls, "write")
				return nil
			},
		}

		if err := NewUserRepoCacheDecorator(inner, mockRedis, time.Minute).SetLanguage(ctx, 42, "so"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(calls) != 2 || calls[0] != "write" || calls[1] != "del:user:lang:42" {
			t.Errorf("expected write then del:user:lang:42, got %v", calls)
		}
	})

	t.Run("SetLanguage should keep the cache when the write fails", func(t *testing.T) {
		deleted := false
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deleted = true
				return nil
			},
		}
		inner := &mockInnerUserRepo{
			SetLanguageFunc: func(ctx context.Context, tgID int64, lang string) error { return domain.ErrNotFound },
		}

		err := NewUserRepoCacheDecorator(inner, mockRedis, time.Minute).SetLanguage(ctx, 42, "so")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if deleted {
			t.Error("cache must not be touched when the write fails")
		}
	})

	t.Run("quota writes pass straight through", func(t *testing.T) {
		called := false
		mockRedis := &mockRedisClient{
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				t.Fatal("quota writes must not touch the cache")
				return nil
			},
		}
		inner := &mockInnerUserRepo{
			SaveQuotaFunc: func(ctx context.Context, tgID int64, next model.QuotaState) error {
				called = true
				return nil
			},
		}

		_ = NewUserRepoCacheDecorator(inner, mockRedis, time.Minute).SaveQuota(ctx, 42, model.QuotaState{Count: 1, Day: "2024-01-01"})
		if !called {
			t.Error("inner SaveQuota was not called")
		}
	})
}
