package service

import (
	"context"
	"errors"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var minTransferAmount = decimal.New(1, -moneyScale)

// TransferService moves funds between two cards of the same owner
type TransferService struct {
	store repository.CardStore
	cards *CardService
}

// NewTransferService initializes a new transfer service
func NewTransferService(store repository.CardStore, cards *CardService) *TransferService {
	return &TransferService{store: store, cards: cards}
}

// Transfer debits intent.FromCardID and credits intent.ToCardID. Both cards
// are read, checked and written inside one store transaction, so concurrent
// transfers touching the same card are serialized.
func (s *TransferService) Transfer(ctx context.Context, intent models.TransferIntent, ownerID int64) (*models.Transfer, error) {
	if err := validateIntent(intent); err != nil {
		return nil, err
	}

	var (
		record   *models.Transfer
		from, to *models.Card
	)
	err := s.store.WithTx(ctx, func(tx repository.CardStore) error {
		var err error
		from, to, err = lockPair(ctx, tx, intent.FromCardID, intent.ToCardID, ownerID)
		if err != nil {
			return err
		}
		if err := s.check(from, to, intent.Amount); err != nil {
			return err
		}

		from.Balance = from.Balance.Sub(intent.Amount)
		to.Balance = to.Balance.Add(intent.Amount)
		if err := tx.SaveCard(ctx, from); err != nil {
			return err
		}
		if err := tx.SaveCard(ctx, to); err != nil {
			return err
		}

		record = &models.Transfer{
			Reference:   uuid.New(),
			FromCardID:  from.ID,
			ToCardID:    to.ID,
			Amount:      intent.Amount,
			Description: intent.Description,
			InitiatedBy: ownerID,
		}
		return tx.CreateTransfer(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.cards.log.Infof("Transfer %s of %s from card %d to card %d by user %d",
		record.Reference, record.Amount.StringFixed(moneyScale), from.ID, to.ID, ownerID)
	s.notify(ctx, ownerID, from, to, *record)
	return record, nil
}

func validateIntent(intent models.TransferIntent) error {
	if intent.FromCardID == intent.ToCardID {
		return invalidInput("sender and receiver cards must differ")
	}
	if intent.Amount.LessThan(minTransferAmount) {
		return invalidInput("amount must be at least %s", minTransferAmount.StringFixed(moneyScale))
	}
	if !hasMoneyScale(intent.Amount) {
		return invalidInput("amount must have at most %d fractional digits", moneyScale)
	}
	return nil
}

// lockPair reads both cards in ascending id order so that two transfers
// over the same pair cannot deadlock on row locks.
func lockPair(ctx context.Context, tx repository.CardStore, fromID, toID, ownerID int64) (*models.Card, *models.Card, error) {
	found := make(map[int64]*models.Card, 2)
	first, second := fromID, toID
	if first > second {
		first, second = second, first
	}
	for _, id := range []int64{first, second} {
		card, err := tx.FindCardByIDAndOwner(ctx, id, ownerID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		found[id] = card
	}

	from, ok := found[fromID]
	if !ok {
		return nil, nil, cardNotFound(fromID)
	}
	to, ok := found[toID]
	if !ok {
		return nil, nil, cardNotFound(toID)
	}
	return from, to, nil
}

func (s *TransferService) check(from, to *models.Card, amount decimal.Decimal) error {
	now := s.cards.now()
	if from.Status != models.CardStatusActive {
		return ErrSenderInactive
	}
	if to.Status != models.CardStatusActive {
		return ErrReceiverInactive
	}
	if from.IsExpired(now) {
		return ErrSenderExpired
	}
	if to.IsExpired(now) {
		return ErrReceiverExpired
	}
	if from.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

func (s *TransferService) notify(ctx context.Context, ownerID int64, from, to *models.Card, record models.Transfer) {
	cs := s.cards
	if cs.notifier == nil {
		return
	}
	owner, err := cs.accounts.FindUserByID(ctx, ownerID)
	if err != nil {
		cs.log.Warnf("Failed to resolve user %d for transfer notification: %v", ownerID, err)
		return
	}
	fromView, err := cs.View(from)
	if err != nil {
		return
	}
	toView, err := cs.View(to)
	if err != nil {
		return
	}
	if err := cs.notifier.TransferCompleted(ctx, owner, fromView, toView, record); err != nil {
		cs.log.Warnf("Failed to notify about transfer %s: %v", record.Reference, err)
	}
}
