package model

import (
	"strings"
	"time"

	"horan-assistant-bot/internal/domain"
)

// DateLayout is the calendar-day key used for quota bookkeeping (always UTC).
const DateLayout = "2006-01-02"

// User is one quota ledger record, keyed by the Telegram user id.
type User struct {
	TelegramID        int64      `json:"telegram_id"`
	Username          string     `json:"username"`
	RegisteredAt      time.Time  `json:"registered_at"`
	MessageCountToday int        `json:"message_count_today"`
	LastCountDate     string     `json:"last_count_date,omitempty"`
	DefaultLanguage   string     `json:"default_language"`
	IsPremium         bool       `json:"is_premium"`
	SubscriptionDate  *time.Time `json:"subscription_date,omitempty"`
}

// NewUser builds a fresh record as of now: zero count, last count date set to
// the previous UTC day so the first consume of today starts a new day.
func NewUser(tgID int64, username string, now time.Time) (*User, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(username) == "" {
		return nil, domain.ErrInvalidArgument
	}
	now = now.UTC()
	return &User{
		TelegramID:        tgID,
		Username:          username,
		RegisteredAt:      now,
		MessageCountToday: 0,
		LastCountDate:     DayKey(now.AddDate(0, 0, -1)),
		DefaultLanguage:   DefaultLanguage,
	}, nil
}

// DayKey formats t as a UTC calendar day.
func DayKey(t time.Time) string { return t.UTC().Format(DateLayout) }

// SetPremium flips the premium flag; turning it on stamps SubscriptionDate.
func (u *User) SetPremium(on bool, now time.Time) {
	if on && !u.IsPremium {
		ts := now.UTC()
		u.SubscriptionDate = &ts
	}
	u.IsPremium = on
}

// Language returns the stored default language, or DefaultLanguage when unset.
func (u *User) Language() string {
	if u == nil || u.DefaultLanguage == "" {
		return DefaultLanguage
	}
	return u.DefaultLanguage
}

// CountOn is the count that applies on day; any other day than the stored one reads as zero.
func (u *User) CountOn(day string) int {
	if u.LastCountDate != day {
		return 0
	}
	return u.MessageCountToday
}

// Settings is the read-only snapshot returned to the settings screen.
type Settings struct {
	TelegramID        int64
	Username          string
	DefaultLanguage   string
	MessageCountToday int
	LastCountDate     string
	UsedToday         int // count on the ledger's current day
	IsPremium         bool
	RegisteredAt      time.Time
}

func (u *User) Snapshot() Settings {
	return Settings{
		TelegramID:        u.TelegramID,
		Username:          u.Username,
		DefaultLanguage:   u.Language(),
		MessageCountToday: u.MessageCountToday,
		LastCountDate:     u.LastCountDate,
		IsPremium:         u.IsPremium,
		RegisteredAt:      u.RegisteredAt,
	}
}
