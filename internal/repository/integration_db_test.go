package repository_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/repository"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestPostgresRepository_CardRoundTrip exercises the lib/pq store.
// Skips unless DB_DSN points at a scratch database.
func TestPostgresRepository_CardRoundTrip(t *testing.T) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set; skipping DB integration test")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	_, err = db.Exec(repository.Schema)
	require.NoError(t, err)

	ctx := context.Background()
	repo := repository.NewRepository(db)

	user := &models.User{
		Name:         "Integration",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Roles:        []models.Role{models.RoleUser},
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	card := &models.Card{
		CardNumber:     uuid.NewString(),
		ExpirationDate: models.Today(time.Now()).AddDate(3, 0, 0),
		Status:         models.CardStatusActive,
		Balance:        decimal.RequireFromString("100.50"),
		OwnerID:        user.ID,
	}
	require.NoError(t, repo.SaveCard(ctx, card))
	require.NotZero(t, card.ID)

	err = repo.WithTx(ctx, func(tx repository.CardStore) error {
		locked, err := tx.FindCardByIDAndOwner(ctx, card.ID, user.ID)
		if err != nil {
			return err
		}
		locked.Balance = locked.Balance.Sub(decimal.RequireFromString("0.50"))
		return tx.SaveCard(ctx, locked)
	})
	require.NoError(t, err)

	got, err := repo.FindCardByID(ctx, card.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("100.00")), got.Balance.String())
	require.Equal(t, card.ExpirationDate, got.ExpirationDate)

	page, err := repo.FindCardsByOwnerAndStatus(ctx, user.ID, models.CardStatusActive, models.PageRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalElements)

	require.NoError(t, repo.DeleteCard(ctx, card.ID))
	_, err = repo.FindCardByID(ctx, card.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostgresRepository_WithTxRollsBackOnPanic(t *testing.T) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set; skipping DB integration test")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(repository.Schema)
	require.NoError(t, err)

	ctx := context.Background()
	repo := repository.NewRepository(db)
	user := &models.User{Name: "Integration", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Roles: []models.Role{models.RoleUser}}
	require.NoError(t, repo.CreateUser(ctx, user))
	card := &models.Card{
		CardNumber:     uuid.NewString(),
		ExpirationDate: models.Today(time.Now()).AddDate(1, 0, 0),
		Status:         models.CardStatusActive,
		Balance:        decimal.RequireFromString("10.00"),
		OwnerID:        user.ID,
	}
	require.NoError(t, repo.SaveCard(ctx, card))

	require.Panics(t, func() {
		repo.WithTx(ctx, func(tx repository.CardStore) error {
			locked, err := tx.FindCardByID(ctx, card.ID)
			require.NoError(t, err)
			locked.Balance = decimal.Zero
			require.NoError(t, tx.SaveCard(ctx, locked))
			panic("boom")
		})
	})

	got, err := repo.FindCardByID(ctx, card.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("10.00")), got.Balance.String())
}
