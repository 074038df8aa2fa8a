package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"horan-assistant-bot/internal/domain"
	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `
telegram_id, username, registered_at, message_count_today,
COALESCE(to_char(last_count_date, 'YYYY-MM-DD'), ''), default_language, is_premium, subscription_date`

// dateParam maps an empty day key to NULL.
func dateParam(day string) any {
	if day == "" {
		return nil
	}
	return day
}

func (r *PostgresUserRepo) Insert(ctx context.Context, u *model.User) (bool, error) {
	const q = `
INSERT INTO users (
  telegram_id, username, registered_at, message_count_today, last_count_date,
  default_language, is_premium, subscription_date
) VALUES (
  $1,$2,$3,$4,$5::text::date,$6,$7,$8
) ON CONFLICT (telegram_id) DO NOTHING;
`
	tag, err := r.pool.Exec(ctx, q, u.TelegramID, u.Username, u.RegisteredAt, u.MessageCountToday,
		dateParam(u.LastCountDate), u.Language(), u.IsPremium, u.SubscriptionDate)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE telegram_id=$1;`
	var u model.User
	err := r.pool.QueryRow(ctx, q, tgID).Scan(
		&u.TelegramID, &u.Username, &u.RegisteredAt, &u.MessageCountToday,
		&u.LastCountDate, &u.DefaultLanguage, &u.IsPremium, &u.SubscriptionDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) UpdateUsername(ctx context.Context, tgID int64, username string) error {
	return r.execOne(ctx, `UPDATE users SET username=$2 WHERE telegram_id=$1;`, tgID, username)
}

func (r *PostgresUserRepo) SaveQuota(ctx context.Context, tgID int64, next model.QuotaState) error {
	return r.execOne(ctx,
		`UPDATE users SET message_count_today=$2, last_count_date=$3::text::date WHERE telegram_id=$1;`,
		tgID, next.Count, dateParam(next.Day))
}

func (r *PostgresUserRepo) SwapQuota(ctx context.Context, tgID int64, prev, next model.QuotaState) (bool, error) {
	const q = `
UPDATE users
   SET message_count_today=$2, last_count_date=$3::text::date
 WHERE telegram_id=$1
   AND message_count_today=$4
   AND last_count_date IS NOT DISTINCT FROM $5::text::date;
`
	tag, err := r.pool.Exec(ctx, q, tgID, next.Count, dateParam(next.Day), prev.Count, dateParam(prev.Day))
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresUserRepo) GetLanguage(ctx context.Context, tgID int64) (string, error) {
	var lang string
	err := r.pool.QueryRow(ctx, `SELECT default_language FROM users WHERE telegram_id=$1;`, tgID).Scan(&lang)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return lang, nil
}

func (r *PostgresUserRepo) SetLanguage(ctx context.Context, tgID int64, lang string) error {
	return r.execOne(ctx, `UPDATE users SET default_language=$2 WHERE telegram_id=$1;`, tgID, lang)
}

func (r *PostgresUserRepo) SetPremium(ctx context.Context, tgID int64, premium bool, since *time.Time) error {
	return r.execOne(ctx, `UPDATE users SET is_premium=$2, subscription_date=$3 WHERE telegram_id=$1;`, tgID, premium, since)
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// execOne runs a single-row update and reports ErrNotFound when no row matched.
func (r *PostgresUserRepo) execOne(ctx context.Context, q string, args ...any) error {
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// mapErr turns constraint violations into domain errors and leaves the rest untouched.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514": // check_violation
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrInvalidArgument)
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrAlreadyExists)
		}
	}
	return err
}
