package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/repository"
	"github.com/Dan9191/bank-rest/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AccountDirectory resolves the account (user) that owns cards
type AccountDirectory interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Notifier is told about completed card events after they are committed
type Notifier interface {
	CardBlocked(ctx context.Context, owner *models.User, card models.CardView) error
	TransferCompleted(ctx context.Context, owner *models.User, from, to models.CardView, transfer models.Transfer) error
}

// Service bundles the card, transfer and user services
type Service struct {
	Cards     *CardService
	Transfers *TransferService
	Users     *UserService
}

// NewService initializes every service over one repository
func NewService(cards repository.CardStore, users repository.UserStore, codec *utils.CardCodec, notifier Notifier, log *logrus.Logger, jwtSecret []byte, tokenTTL time.Duration) *Service {
	cardSvc := NewCardService(cards, users, codec, notifier, log)
	return &Service{
		Cards:     cardSvc,
		Transfers: NewTransferService(cards, cardSvc),
		Users:     NewUserService(users, log, jwtSecret, tokenTTL),
	}
}

// moneyScale is the number of fractional digits of every amount
const moneyScale = 2

func hasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(moneyScale))
}

// resolveOwner maps a directory miss to ErrOwnerNotFound
func resolveOwner(ctx context.Context, dir AccountDirectory, ownerID int64) (*models.User, error) {
	owner, err := dir.FindUserByID(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("owner %d: %w", ownerID, ErrOwnerNotFound)
	}
	if err != nil {
		return nil, err
	}
	return owner, nil
}
