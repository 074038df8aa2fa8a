// Package sqlite is the embedded row store, for single-node deployments without Postgres.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"horan-assistant-bot/internal/domain"
	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/domain/ports/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type userRow struct {
	TelegramID        int64      `gorm:"primaryKey;autoIncrement:false"`
	Username          string     `gorm:"not null"`
	RegisteredAt      time.Time  `gorm:"not null"`
	MessageCountToday int        `gorm:"not null;default:0"`
	LastCountDate     *string    `gorm:"type:text"`
	DefaultLanguage   string     `gorm:"not null;default:'en'"`
	IsPremium         bool       `gorm:"not null;default:false"`
	SubscriptionDate  *time.Time
}

func (userRow) TableName() string { return "users" }

func toRow(u *model.User) *userRow {
	r := &userRow{
		TelegramID:        u.TelegramID,
		Username:          u.Username,
		RegisteredAt:      u.RegisteredAt,
		MessageCountToday: u.MessageCountToday,
		DefaultLanguage:   u.Language(),
		IsPremium:         u.IsPremium,
		SubscriptionDate:  u.SubscriptionDate,
	}
	if u.LastCountDate != "" {
		d := u.LastCountDate
		r.LastCountDate = &d
	}
	return r
}

func (r *userRow) toModel() *model.User {
	u := &model.User{
		TelegramID:        r.TelegramID,
		Username:          r.Username,
		RegisteredAt:      r.RegisteredAt,
		MessageCountToday: r.MessageCountToday,
		DefaultLanguage:   r.DefaultLanguage,
		IsPremium:         r.IsPremium,
		SubscriptionDate:  r.SubscriptionDate,
	}
	if r.LastCountDate != nil {
		u.LastCountDate = *r.LastCountDate
	}
	return u
}

type UserRepo struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database file at dsn and migrates the users table.
func Open(dsn string) (*UserRepo, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one writer at a time keeps SQLite from returning SQLITE_BUSY under load
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &UserRepo{db: db}, nil
}

func (r *UserRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *UserRepo) Insert(ctx context.Context, u *model.User) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "telegram_id"}}, DoNothing: true}).
		Create(toRow(u))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("telegram_id = ?", tgID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (r *UserRepo) UpdateUsername(ctx context.Context, tgID int64, username string) error {
	return r.updateOne(ctx, tgID, map[string]any{"username": username})
}

func (r *UserRepo) SaveQuota(ctx context.Context, tgID int64, next model.QuotaState) error {
	return r.updateOne(ctx, tgID, quotaColumns(next))
}

func (r *UserRepo) SwapQuota(ctx context.Context, tgID int64, prev, next model.QuotaState) (bool, error) {
	q := r.db.WithContext(ctx).Model(&userRow{}).
		Where("telegram_id = ? AND message_count_today = ?", tgID, prev.Count)
	if prev.Day == "" {
		q = q.Where("last_count_date IS NULL")
	} else {
		q = q.Where("last_count_date = ?", prev.Day)
	}
	res := q.Updates(quotaColumns(next))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepo) GetLanguage(ctx context.Context, tgID int64) (string, error) {
	var row userRow
	err := r.db.WithContext(ctx).Select("default_language").Where("telegram_id = ?", tgID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return row.DefaultLanguage, nil
}

func (r *UserRepo) SetLanguage(ctx context.Context, tgID int64, lang string) error {
	return r.updateOne(ctx, tgID, map[string]any{"default_language": lang})
}

func (r *UserRepo) SetPremium(ctx context.Context, tgID int64, premium bool, since *time.Time) error {
	return r.updateOne(ctx, tgID, map[string]any{"is_premium": premium, "subscription_date": since})
}

func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&userRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

func (r *UserRepo) updateOne(ctx context.Context, tgID int64, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&userRow{}).Where("telegram_id = ?", tgID).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func quotaColumns(next model.QuotaState) map[string]any {
	var day any
	if next.Day != "" {
		day = next.Day
	}
	return map[string]any{"message_count_today": next.Count, "last_count_date": day}
}
