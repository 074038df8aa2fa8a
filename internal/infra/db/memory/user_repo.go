// Package memory is a process-local row store used in dev mode and by unit tests.
package memory

import (
	"context"
	"sync"
	"time"

	"horan-assistant-bot/internal/domain"
	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{store: make(map[int64]*model.User)}
}

func (r *UserRepo) Insert(ctx context.Context, u *model.User) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[u.TelegramID]; ok {
		return false, nil
	}
	cp := *u
	r.store[u.TelegramID] = &cp
	return true, nil
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) UpdateUsername(ctx context.Context, tgID int64, username string) error {
	return r.update(ctx, tgID, func(u *model.User) { u.Username = username })
}

func (r *UserRepo) SaveQuota(ctx context.Context, tgID int64, next model.QuotaState) error {
	return r.update(ctx, tgID, func(u *model.User) {
		u.MessageCountToday = next.Count
		u.LastCountDate = next.Day
	})
}

func (r *UserRepo) SwapQuota(ctx context.Context, tgID int64, prev, next model.QuotaState) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.store[tgID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if u.QuotaState() != prev {
		return false, nil
	}
	u.MessageCountToday = next.Count
	u.LastCountDate = next.Day
	return true, nil
}

func (r *UserRepo) GetLanguage(ctx context.Context, tgID int64) (string, error) {
	u, err := r.FindByTelegramID(ctx, tgID)
	if err != nil {
		return "", err
	}
	return u.DefaultLanguage, nil
}

func (r *UserRepo) SetLanguage(ctx context.Context, tgID int64, lang string) error {
	return r.update(ctx, tgID, func(u *model.User) { u.DefaultLanguage = lang })
}

func (r *UserRepo) SetPremium(ctx context.Context, tgID int64, premium bool, since *time.Time) error {
	return r.update(ctx, tgID, func(u *model.User) {
		u.IsPremium = premium
		u.SubscriptionDate = since
	})
}

func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store), nil
}

func (r *UserRepo) update(ctx context.Context, tgID int64, fn func(u *model.User)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.store[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	fn(u)
	return nil
}
