//go:build !integration

package postgres

import (
	"context"
	"time"

	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/domain/ports/repository"
	red "horan-assistant-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerUserRepo mocks the database repository that the User decorator wraps.
// Only the language calls are exercised; the rest are unused pass-throughs.
type mockInnerUserRepo struct {
	repository.UserRepository

	GetLanguageFunc func(ctx context.Context, tgID int64) (string, error)
	SetLanguageFunc func(ctx context.Context, tgID int64, lang string) error
	SaveQuotaFunc   func(ctx context.Context, tgID int64, next model.QuotaState) error
}

func (m *mockInnerUserRepo) GetLanguage(ctx context.Context, tgID int64) (string, error) {
	return m.GetLanguageFunc(ctx, tgID)
}
func (m *mockInnerUserRepo) SetLanguage(ctx context.Context, tgID int64, lang string) error {
	return m.SetLanguageFunc(ctx, tgID, lang)
}
func (m *mockInnerUserRepo) SaveQuota(ctx context.Context, tgID int64, next model.QuotaState) error {
	return m.SaveQuotaFunc(ctx, tgID, next)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", red.Nil
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) DelIfEquals(ctx context.Context, key, value string) error { return nil }
func (m *mockRedisClient) Ping(ctx context.Context) error                           { return nil }
func (m *mockRedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 1, nil
}
func (m *mockRedisClient) Close() error { return nil }
