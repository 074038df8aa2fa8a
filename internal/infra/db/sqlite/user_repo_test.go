//go:build !integration

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"horan-assistant-bot/internal/domain"
	"horan-assistant-bot/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) *UserRepo {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "data", "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestUserRepo_InsertFind(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	u, err := model.NewUser(42, "alice", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	created, err := repo.Insert(ctx, u)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Insert(ctx, u)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "2024-04-30", got.LastCountDate)
	assert.Equal(t, "en", got.DefaultLanguage)

	_, err = repo.FindByTelegramID(ctx, 43)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_QuotaWrites(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	u, _ := model.NewUser(42, "alice", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	_, _ = repo.Insert(ctx, u)

	require.NoError(t, repo.SaveQuota(ctx, 42, model.QuotaState{Count: 9, Day: "2024-05-01"}))

	ok, err := repo.SwapQuota(ctx, 42,
		model.QuotaState{Count: 9, Day: "2024-05-01"},
		model.QuotaState{Count: 10, Day: "2024-05-01"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SwapQuota(ctx, 42,
		model.QuotaState{Count: 9, Day: "2024-05-01"},
		model.QuotaState{Count: 10, Day: "2024-05-01"})
	require.NoError(t, err)
	assert.False(t, ok, "stale expectation must not match")

	got, _ := repo.FindByTelegramID(ctx, 42)
	assert.Equal(t, model.QuotaState{Count: 10, Day: "2024-05-01"}, got.QuotaState())

	assert.ErrorIs(t, repo.SaveQuota(ctx, 99, model.QuotaState{Count: 1, Day: "2024-05-01"}), domain.ErrNotFound)
}

func TestUserRepo_SwapFromNullDate(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	u, _ := model.NewUser(42, "alice", time.Now())
	u.LastCountDate = ""
	_, _ = repo.Insert(ctx, u)

	ok, err := repo.SwapQuota(ctx, 42, model.QuotaState{}, model.QuotaState{Count: 1, Day: "2024-05-01"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserRepo_LanguagePremiumCount(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	for _, id := range []int64{1, 2, 3} {
		u, _ := model.NewUser(id, "u", time.Now())
		_, _ = repo.Insert(ctx, u)
	}

	require.NoError(t, repo.SetLanguage(ctx, 2, "ar"))
	lang, err := repo.GetLanguage(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "ar", lang)

	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetPremium(ctx, 3, true, &since))
	got, _ := repo.FindByTelegramID(ctx, 3)
	assert.True(t, got.IsPremium)
	require.NotNil(t, got.SubscriptionDate)

	require.NoError(t, repo.UpdateUsername(ctx, 1, "renamed"))
	got, _ = repo.FindByTelegramID(ctx, 1)
	assert.Equal(t, "renamed", got.Username)

	n, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
