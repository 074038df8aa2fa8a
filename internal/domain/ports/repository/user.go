package repository

import (
	"context"
	"time"

	"horan-assistant-bot/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

// UserRepository is the row store behind the quota ledger. Every method is a single
// statement against one row; implementations return domain.ErrNotFound for a missing user.
type UserRepository interface {
	// Insert stores u unless a row with the same TelegramID exists. created reports which happened.
	Insert(ctx context.Context, u *model.User) (created bool, err error)
	FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	UpdateUsername(ctx context.Context, tgID int64, username string) error

	// SaveQuota overwrites the counting pair unconditionally.
	SaveQuota(ctx context.Context, tgID int64, next model.QuotaState) error
	// SwapQuota writes next only if the stored pair still equals prev.
	SwapQuota(ctx context.Context, tgID int64, prev, next model.QuotaState) (swapped bool, err error)

	GetLanguage(ctx context.Context, tgID int64) (string, error)
	SetLanguage(ctx context.Context, tgID int64, lang string) error

	SetPremium(ctx context.Context, tgID int64, premium bool, since *time.Time) error
	CountUsers(ctx context.Context) (int, error)
}
