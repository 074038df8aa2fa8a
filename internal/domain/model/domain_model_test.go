//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"horan-assistant-bot/internal/domain"
)

// --- User Model Tests ---

func TestNewUser(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

	t.Run("should create a new user successfully", func(t *testing.T) {
		user, err := NewUser(12345, "testuser", now)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if user.TelegramID != 12345 {
			t.Errorf("expected telegram ID to be 12345, but got %d", user.TelegramID)
		}
		if user.MessageCountToday != 0 {
			t.Errorf("expected count 0, got %d", user.MessageCountToday)
		}
		if user.LastCountDate != "2024-03-09" {
			t.Errorf("expected last count date to be the previous day, got %s", user.LastCountDate)
		}
		if user.DefaultLanguage != "en" {
			t.Errorf("expected default language en, got %s", user.DefaultLanguage)
		}
		if user.IsPremium {
			t.Error("new users must not be premium")
		}
	})

	t.Run("should use the UTC day for the initial date", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*3600)
		// 01:00 local on the 11th is still the 10th in UTC.
		user, err := NewUser(1, "u", time.Date(2024, 3, 11, 1, 0, 0, 0, loc))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.LastCountDate != "2024-03-09" {
			t.Errorf("expected 2024-03-09, got %s", user.LastCountDate)
		}
	})

	t.Run("should fail with invalid telegram ID", func(t *testing.T) {
		user, err := NewUser(0, "testuser", now)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if user != nil {
			t.Error("expected nil user on error")
		}
	})

	t.Run("should fail with empty username", func(t *testing.T) {
		if _, err := NewUser(12345, "  ", now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestUser_SetPremium(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u, _ := NewUser(1, "u", now)

	u.SetPremium(true, now)
	if !u.IsPremium || u.SubscriptionDate == nil {
		t.Fatal("expected premium with subscription date")
	}
	first := *u.SubscriptionDate

	u.SetPremium(true, now.Add(time.Hour))
	if !u.SubscriptionDate.Equal(first) {
		t.Error("re-enabling premium must keep the original subscription date")
	}

	u.SetPremium(false, now)
	if u.IsPremium {
		t.Error("expected premium to be off")
	}
}

// --- Quota Rules Tests ---

func TestDecideConsume(t *testing.T) {
	const today = "2024-01-02"
	tests := []struct {
		name  string
		count int
		date  string
		want  QuotaDecision
	}{
		{"new day resets", 10, "2024-01-01", QuotaDecision{Allowed: true, CountAfter: 1, Write: true, Day: today}},
		{"never counted", 0, "", QuotaDecision{Allowed: true, CountAfter: 1, Write: true, Day: today}},
		{"below cap", 4, today, QuotaDecision{Allowed: true, CountAfter: 5, Write: true, Day: today}},
		{"last unit", 9, today, QuotaDecision{Allowed: true, CountAfter: 10, Write: true, Day: today}},
		{"at cap", 10, today, QuotaDecision{Allowed: false, CountAfter: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{TelegramID: 1, MessageCountToday: tt.count, LastCountDate: tt.date}
			got := DecideConsume(u, today, 10)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if CanConsume(u, today, 10) != tt.want.Allowed {
				t.Errorf("CanConsume disagrees with DecideConsume")
			}
		})
	}
}

func TestDecideRecord(t *testing.T) {
	u := &User{TelegramID: 1, MessageCountToday: 10, LastCountDate: "2024-01-02"}
	got := DecideRecord(u, "2024-01-02")
	if !got.Allowed || got.CountAfter != 11 {
		t.Errorf("unexpected decision %+v", got)
	}
	got = DecideRecord(u, "2024-01-03")
	if got.CountAfter != 1 {
		t.Errorf("expected rollover to 1, got %d", got.CountAfter)
	}
}

func TestQuotaResult_Remaining(t *testing.T) {
	if r := (QuotaResult{CountAfter: 3, Cap: 10}).Remaining(); r != 7 {
		t.Errorf("expected 7, got %d", r)
	}
	if r := (QuotaResult{CountAfter: 12, Cap: 10}).Remaining(); r != 0 {
		t.Errorf("expected 0, got %d", r)
	}
}

func TestLanguages(t *testing.T) {
	if !IsSupportedLanguage("om") || IsSupportedLanguage("de") {
		t.Error("unexpected language support result")
	}
	if LanguageName("am") != "Amharic" {
		t.Errorf("unexpected name %q", LanguageName("am"))
	}
}
