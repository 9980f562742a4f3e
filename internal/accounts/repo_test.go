package accounts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/perfdash-backend/pkg/db"
	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/pagination"
)

func setupAccountsTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Account{}, &models.AccountSource{}))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db.Wrap(conn)
}

func seedAccount(t *testing.T, repo *Repository, slug string, createdAt time.Time) *models.Account {
	t.Helper()
	account := &models.Account{
		Name:              slug,
		Slug:              slug,
		DisplayCurrency:   enums.CurrencyDKK,
		RevenuePreference: enums.RevenueGross,
		Timezone:          defaultTimezone,
		CreatedAt:         createdAt,
		Sources: []models.AccountSource{
			{Kind: enums.SourceShopify, Currency: enums.CurrencyDKK, Enabled: true, Labels: pq.StringArray{}},
			{Kind: enums.SourceMetaAds, Currency: enums.CurrencyUSD, Enabled: false, Labels: pq.StringArray{"eu"}},
		},
	}
	require.NoError(t, repo.Create(context.Background(), account))
	return account
}

func TestRepositoryCreateAndFind(t *testing.T) {
	client := setupAccountsTestDB(t)
	repo := NewRepository(client)
	created := seedAccount(t, repo, "acme", time.Now().UTC())

	byID, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", byID.Slug)
	require.Len(t, byID.Sources, 2)
	assert.Equal(t, enums.SourceMetaAds, byID.Sources[0].Kind)
	assert.False(t, byID.Sources[0].Enabled)
	assert.Equal(t, []string{"eu"}, []string(byID.Sources[0].Labels))

	bySlug, err := repo.FindBySlug(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.True(t, db.IsNotFound(err))
}

func TestRepositoryCreateDuplicateSlug(t *testing.T) {
	client := setupAccountsTestDB(t)
	repo := NewRepository(client)
	seedAccount(t, repo, "acme", time.Now().UTC())

	err := repo.Create(context.Background(), &models.Account{Name: "other", Slug: "acme", DisplayCurrency: enums.CurrencyDKK, RevenuePreference: enums.RevenueGross, Timezone: defaultTimezone})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryListPagination(t *testing.T) {
	client := setupAccountsTestDB(t)
	repo := NewRepository(client)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, slug := range []string{"alpha", "bravo", "charlie"} {
		seedAccount(t, repo, slug, base.Add(time.Duration(i)*time.Hour))
	}

	first, next, err := repo.List(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "charlie", first[0].Slug)
	assert.Equal(t, "bravo", first[1].Slug)
	assert.Len(t, first[0].Sources, 2)
	require.NotEmpty(t, next)

	second, next, err := repo.List(context.Background(), pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "alpha", second[0].Slug)
	assert.Empty(t, next)

	_, _, err = repo.List(context.Background(), pagination.Params{Cursor: "%%%"})
	assert.Error(t, err)
}

func TestRepositoryUpdateLeavesSources(t *testing.T) {
	client := setupAccountsTestDB(t)
	repo := NewRepository(client)
	account := seedAccount(t, repo, "acme", time.Now().UTC())

	account.Name = "Acme ApS"
	account.Sources = nil
	require.NoError(t, repo.Update(context.Background(), account))

	reloaded, err := repo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme ApS", reloaded.Name)
	assert.Len(t, reloaded.Sources, 2)
}

func TestRepositoryReplaceSources(t *testing.T) {
	client := setupAccountsTestDB(t)
	repo := NewRepository(client)
	account := seedAccount(t, repo, "acme", time.Now().UTC())

	err := repo.ReplaceSources(context.Background(), account.ID, []models.AccountSource{
		{Kind: enums.SourceGoogleAds, Currency: enums.CurrencyEUR, Enabled: true, Table: "ads_export", Labels: pq.StringArray{}},
	})
	require.NoError(t, err)

	reloaded, err := repo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Sources, 1)
	assert.Equal(t, enums.SourceGoogleAds, reloaded.Sources[0].Kind)
	assert.Equal(t, "ads_export", reloaded.Sources[0].Table)
	assert.Equal(t, account.ID, reloaded.Sources[0].AccountID)

	require.NoError(t, repo.ReplaceSources(context.Background(), account.ID, nil))
	reloaded, err = repo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Sources)
}
