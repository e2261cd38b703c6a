package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/repository"
	"github.com/Dan9191/bank-rest/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testKey = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeNotifier struct {
	mu        sync.Mutex
	blocked   []models.CardView
	transfers []models.Transfer
}

func (n *fakeNotifier) CardBlocked(ctx context.Context, owner *models.User, card models.CardView) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocked = append(n.blocked, card)
	return nil
}

func (n *fakeNotifier) TransferCompleted(ctx context.Context, owner *models.User, from, to models.CardView, transfer models.Transfer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transfers = append(n.transfers, transfer)
	return nil
}

// countingStore counts card writes made through it and through its transactions
type countingStore struct {
	repository.CardStore
	mu    *sync.Mutex
	saves *int
	// failOnSave makes the n-th save (1-based) fail when non-zero
	failOnSave int
}

func newCountingStore(inner repository.CardStore) *countingStore {
	return &countingStore{CardStore: inner, mu: &sync.Mutex{}, saves: new(int)}
}

func (c *countingStore) SaveCard(ctx context.Context, card *models.Card) error {
	c.mu.Lock()
	*c.saves++
	n := *c.saves
	c.mu.Unlock()
	if c.failOnSave != 0 && n == c.failOnSave {
		return &repository.StoreError{Op: "update card", Err: context.DeadlineExceeded}
	}
	return c.CardStore.SaveCard(ctx, card)
}

func (c *countingStore) WithTx(ctx context.Context, fn func(repository.CardStore) error) error {
	return c.CardStore.WithTx(ctx, func(tx repository.CardStore) error {
		return fn(&countingStore{CardStore: tx, mu: c.mu, saves: c.saves, failOnSave: c.failOnSave})
	})
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.saves
}

type fixture struct {
	repo      *repository.MemoryRepository
	store     *countingStore
	codec     *utils.CardCodec
	notifier  *fakeNotifier
	cards     *CardService
	transfers *TransferService
	owner     *models.User
	other     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	repo := repository.NewMemoryRepository()
	codec, err := utils.NewCardCodec(testKey, utils.CipherGCM, false)
	require.NoError(t, err)

	owner := &models.User{Name: "Ivan", Email: "ivan@example.com", Roles: []models.Role{models.RoleUser}}
	other := &models.User{Name: "Petr", Email: "petr@example.com", Roles: []models.Role{models.RoleUser}}
	require.NoError(t, repo.CreateUser(ctx, owner))
	require.NoError(t, repo.CreateUser(ctx, other))

	store := newCountingStore(repo)
	notifier := &fakeNotifier{}
	cards := NewCardService(store, repo, codec, notifier, testLogger())
	cards.now = func() time.Time { return testNow }

	return &fixture{
		repo:      repo,
		store:     store,
		codec:     codec,
		notifier:  notifier,
		cards:     cards,
		transfers: NewTransferService(store, cards),
		owner:     owner,
		other:     other,
	}
}

// seed stores a card directly, bypassing the lifecycle checks
func (f *fixture) seed(t *testing.T, ownerID int64, balance string, status models.CardStatus, expiration time.Time) *models.Card {
	t.Helper()
	number, err := f.codec.Generate()
	require.NoError(t, err)
	encrypted, err := f.codec.Encrypt(number)
	require.NoError(t, err)

	card := &models.Card{
		CardNumber:     encrypted,
		ExpirationDate: models.Today(expiration),
		Status:         status,
		Balance:        decimal.RequireFromString(balance),
		OwnerID:        ownerID,
	}
	require.NoError(t, f.repo.SaveCard(context.Background(), card))
	return card
}

func (f *fixture) stored(t *testing.T, id int64) *models.Card {
	t.Helper()
	card, err := f.repo.FindCardByID(context.Background(), id)
	require.NoError(t, err)
	return card
}

func nextYear() time.Time {
	return testNow.AddDate(1, 0, 0)
}

func yesterday() time.Time {
	return testNow.AddDate(0, 0, -1)
}

func requireBalance(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}
