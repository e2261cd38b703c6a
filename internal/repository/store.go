package repository

import (
	"context"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
)

// CardStore is the persistence contract of cards and the transfer ledger.
// Implementations return ErrNotFound for absent rows and *StoreError for
// any other failure.
type CardStore interface {
	FindCardByID(ctx context.Context, id int64) (*models.Card, error)
	FindCardByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Card, error)
	FindCardsByOwner(ctx context.Context, ownerID int64, page models.PageRequest) (models.Page[models.Card], error)
	FindCardsByOwnerAndStatus(ctx context.Context, ownerID int64, status models.CardStatus, page models.PageRequest) (models.Page[models.Card], error)
	FindAllCards(ctx context.Context) ([]models.Card, error)
	FindActiveCardsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Card, error)
	// SaveCard inserts the card when its ID is zero and updates it otherwise
	SaveCard(ctx context.Context, card *models.Card) error
	DeleteCard(ctx context.Context, id int64) error

	CreateTransfer(ctx context.Context, transfer *models.Transfer) error
	FindTransfersByCard(ctx context.Context, cardID int64, page models.PageRequest) (models.Page[models.Transfer], error)

	// WithTx runs fn as one atomic unit. Either every write made through
	// the store passed to fn becomes visible, or none does.
	WithTx(ctx context.Context, fn func(CardStore) error) error
}

// UserStore is the persistence contract of users
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindAllUsers(ctx context.Context) ([]models.User, error)
}

var (
	_ CardStore = (*Repository)(nil)
	_ UserStore = (*Repository)(nil)
	_ CardStore = (*MemoryRepository)(nil)
	_ UserStore = (*MemoryRepository)(nil)
)
