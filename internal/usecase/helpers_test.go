//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/domain/ports/repository"
	"horan-assistant-bot/internal/infra/db/memory"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t.Add(12 * time.Hour)
}

// mockUserRepo delegates to an in-memory store unless a func field overrides the call.
type mockUserRepo struct {
	*memory.UserRepo

	FindFunc        func(ctx context.Context, tgID int64) (*model.User, error)
	InsertFunc      func(ctx context.Context, u *model.User) (bool, error)
	SaveQuotaFunc   func(ctx context.Context, tgID int64, next model.QuotaState) error
	SwapQuotaFunc   func(ctx context.Context, tgID int64, prev, next model.QuotaState) (bool, error)
	GetLanguageFunc func(ctx context.Context, tgID int64) (string, error)
	SetLanguageFunc func(ctx context.Context, tgID int64, lang string) error
	CountUsersFunc  func(ctx context.Context) (int, error)
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{UserRepo: memory.NewUserRepo()}
}

func (m *mockUserRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tgID)
	}
	return m.UserRepo.FindByTelegramID(ctx, tgID)
}

func (m *mockUserRepo) Insert(ctx context.Context, u *model.User) (bool, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, u)
	}
	return m.UserRepo.Insert(ctx, u)
}

func (m *mockUserRepo) SaveQuota(ctx context.Context, tgID int64, next model.QuotaState) error {
	if m.SaveQuotaFunc != nil {
		return m.SaveQuotaFunc(ctx, tgID, next)
	}
	return m.UserRepo.SaveQuota(ctx, tgID, next)
}

func (m *mockUserRepo) SwapQuota(ctx context.Context, tgID int64, prev, next model.QuotaState) (bool, error) {
	if m.SwapQuotaFunc != nil {
		return m.SwapQuotaFunc(ctx, tgID, prev, next)
	}
	return m.UserRepo.SwapQuota(ctx, tgID, prev, next)
}

func (m *mockUserRepo) GetLanguage(ctx context.Context, tgID int64) (string, error) {
	if m.GetLanguageFunc != nil {
		return m.GetLanguageFunc(ctx, tgID)
	}
	return m.UserRepo.GetLanguage(ctx, tgID)
}

func (m *mockUserRepo) SetLanguage(ctx context.Context, tgID int64, lang string) error {
	if m.SetLanguageFunc != nil {
		return m.SetLanguageFunc(ctx, tgID, lang)
	}
	return m.UserRepo.SetLanguage(ctx, tgID, lang)
}

func (m *mockUserRepo) CountUsers(ctx context.Context) (int, error) {
	if m.CountUsersFunc != nil {
		return m.CountUsersFunc(ctx)
	}
	return m.UserRepo.CountUsers(ctx)
}

// seed stores a user with the given counting pair.
func (m *mockUserRepo) seed(tgID int64, count int, lastDate string) {
	_, _ = m.UserRepo.Insert(context.Background(), &model.User{
		TelegramID:        tgID,
		Username:          "seeded",
		RegisteredAt:      time.Now().UTC(),
		MessageCountToday: count,
		LastCountDate:     lastDate,
		DefaultLanguage:   model.DefaultLanguage,
	})
}

// barrierRepo holds the first n reads until all n have loaded their snapshot,
// so n concurrent consumes are guaranteed to decide on the same state.
type barrierRepo struct {
	repository.UserRepository

	mu        sync.Mutex
	remaining int
	release   chan struct{}
}

func newBarrierRepo(inner repository.UserRepository, n int) *barrierRepo {
	return &barrierRepo{UserRepository: inner, remaining: n, release: make(chan struct{})}
}

func (b *barrierRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	u, err := b.UserRepository.FindByTelegramID(ctx, tgID)

	b.mu.Lock()
	wait := b.remaining > 0
	if wait {
		b.remaining--
		if b.remaining == 0 {
			close(b.release)
		}
	}
	b.mu.Unlock()

	if wait {
		select {
		case <-b.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return u, err
}
