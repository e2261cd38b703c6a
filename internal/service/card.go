package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/repository"
	"github.com/Dan9191/bank-rest/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CardService manages the card lifecycle. Callers reach it through one of
// two entry points: ForOwner for operations scoped to the cards of one
// owner, Admin for operations without an ownership check.
type CardService struct {
	store    repository.CardStore
	accounts AccountDirectory
	codec    *utils.CardCodec
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

// NewCardService initializes a new card service
func NewCardService(store repository.CardStore, accounts AccountDirectory, codec *utils.CardCodec, notifier Notifier, log *logrus.Logger) *CardService {
	return &CardService{
		store:    store,
		accounts: accounts,
		codec:    codec,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// OwnerCards are the card operations available to the owner of the cards
type OwnerCards struct {
	svc     *CardService
	ownerID int64
}

// AdminCards are the administrative card operations
type AdminCards struct {
	svc *CardService
}

// ForOwner scopes card operations to ownerID
func (s *CardService) ForOwner(ownerID int64) *OwnerCards {
	return &OwnerCards{svc: s, ownerID: ownerID}
}

// Admin returns the administrative operation set
func (s *CardService) Admin() *AdminCards {
	return &AdminCards{svc: s}
}

// View masks the card number of a persisted card
func (s *CardService) View(card *models.Card) (models.CardView, error) {
	plain, err := s.codec.Decrypt(card.CardNumber)
	if err != nil {
		s.log.Errorf("Failed to decrypt number of card %d: %v", card.ID, err)
		return models.CardView{}, err
	}
	return models.CardView{
		ID:               card.ID,
		MaskedCardNumber: utils.MaskCardNumber(plain),
		ExpirationDate:   card.ExpirationDate.Format(models.DateLayout),
		Status:           card.Status,
		Balance:          card.Balance,
		OwnerID:          card.OwnerID,
	}, nil
}

func (s *CardService) views(cards []models.Card) ([]models.CardView, error) {
	out := make([]models.CardView, 0, len(cards))
	for i := range cards {
		v, err := s.View(&cards[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *CardService) viewPage(page models.Page[models.Card]) (models.Page[models.CardView], error) {
	return models.MapPage(page, func(c models.Card) (models.CardView, error) {
		return s.View(&c)
	})
}

func (s *CardService) today() time.Time {
	return models.Today(s.now())
}

// Create issues a new ACTIVE card for the owner
func (o *OwnerCards) Create(ctx context.Context, req models.NewCard) (models.CardView, error) {
	s := o.svc
	expiration := models.Today(req.ExpirationDate)
	if !expiration.After(s.today()) {
		return models.CardView{}, invalidInput("expiration date must be in the future")
	}
	balance := decimal.Zero
	if req.Balance != nil {
		balance = *req.Balance
	}
	if balance.IsNegative() {
		return models.CardView{}, invalidInput("balance cannot be negative")
	}
	if !hasMoneyScale(balance) {
		return models.CardView{}, invalidInput("balance must have at most %d fractional digits", moneyScale)
	}

	if _, err := resolveOwner(ctx, s.accounts, o.ownerID); err != nil {
		return models.CardView{}, err
	}

	number, err := s.codec.Generate()
	if err != nil {
		s.log.Errorf("Failed to generate card number: %v", err)
		return models.CardView{}, err
	}
	encrypted, err := s.codec.Encrypt(number)
	if err != nil {
		s.log.Errorf("Failed to encrypt card number: %v", err)
		return models.CardView{}, err
	}

	card := &models.Card{
		CardNumber:     encrypted,
		ExpirationDate: expiration,
		Status:         models.CardStatusActive,
		Balance:        balance,
		OwnerID:        o.ownerID,
	}
	if err := s.store.SaveCard(ctx, card); err != nil {
		return models.CardView{}, err
	}

	s.log.Infof("Card %d created for user %d", card.ID, o.ownerID)
	return models.CardView{
		ID:               card.ID,
		MaskedCardNumber: utils.MaskCardNumber(number),
		ExpirationDate:   card.ExpirationDate.Format(models.DateLayout),
		Status:           card.Status,
		Balance:          card.Balance,
		OwnerID:          card.OwnerID,
	}, nil
}

// Get returns one of the owner's cards
func (o *OwnerCards) Get(ctx context.Context, cardID int64) (models.CardView, error) {
	card, err := o.find(ctx, o.svc.store, cardID)
	if err != nil {
		return models.CardView{}, err
	}
	return o.svc.View(card)
}

// List returns one page of the owner's cards
func (o *OwnerCards) List(ctx context.Context, page models.PageRequest) (models.Page[models.CardView], error) {
	cards, err := o.svc.store.FindCardsByOwner(ctx, o.ownerID, page)
	if err != nil {
		return models.Page[models.CardView]{}, err
	}
	return o.svc.viewPage(cards)
}

// ListByStatus returns one page of the owner's cards in status
func (o *OwnerCards) ListByStatus(ctx context.Context, status models.CardStatus, page models.PageRequest) (models.Page[models.CardView], error) {
	cards, err := o.svc.store.FindCardsByOwnerAndStatus(ctx, o.ownerID, status, page)
	if err != nil {
		return models.Page[models.CardView]{}, err
	}
	return o.svc.viewPage(cards)
}

// Transfers returns one page of the ledger entries touching the owner's card
func (o *OwnerCards) Transfers(ctx context.Context, cardID int64, page models.PageRequest) (models.Page[models.Transfer], error) {
	if _, err := o.find(ctx, o.svc.store, cardID); err != nil {
		return models.Page[models.Transfer]{}, err
	}
	return o.svc.store.FindTransfersByCard(ctx, cardID, page)
}

// History returns an owned card together with every ledger entry touching it
func (o *OwnerCards) History(ctx context.Context, cardID int64) (models.CardView, []models.Transfer, error) {
	view, err := o.Get(ctx, cardID)
	if err != nil {
		return models.CardView{}, nil, err
	}
	var all []models.Transfer
	req := models.PageRequest{Size: models.MaxPageSize}
	for {
		page, err := o.svc.store.FindTransfersByCard(ctx, cardID, req)
		if err != nil {
			return models.CardView{}, nil, err
		}
		all = append(all, page.Items...)
		if req.Page+1 >= page.TotalPages {
			return view, all, nil
		}
		req.Page++
	}
}

// Block moves an owned card to BLOCKED
func (o *OwnerCards) Block(ctx context.Context, cardID int64) (models.CardView, error) {
	s := o.svc
	var blocked *models.Card
	err := s.store.WithTx(ctx, func(tx repository.CardStore) error {
		card, err := o.find(ctx, tx, cardID)
		if err != nil {
			return err
		}
		if err := s.transition(card, models.CardStatusBlocked); err != nil {
			return err
		}
		if err := tx.SaveCard(ctx, card); err != nil {
			return err
		}
		blocked = card
		return nil
	})
	if err != nil {
		return models.CardView{}, err
	}

	s.log.Infof("Card %d blocked by user %d", cardID, o.ownerID)
	view, err := s.View(blocked)
	if err != nil {
		return models.CardView{}, err
	}
	s.notifyBlocked(ctx, view)
	return view, nil
}

func (o *OwnerCards) find(ctx context.Context, store repository.CardStore, cardID int64) (*models.Card, error) {
	card, err := store.FindCardByIDAndOwner(ctx, cardID, o.ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, cardNotFound(cardID)
	}
	return card, err
}

// List returns every card
func (a *AdminCards) List(ctx context.Context) ([]models.CardView, error) {
	cards, err := a.svc.store.FindAllCards(ctx)
	if err != nil {
		return nil, err
	}
	return a.svc.views(cards)
}

// Get returns any card by id
func (a *AdminCards) Get(ctx context.Context, cardID int64) (models.CardView, error) {
	card, err := a.find(ctx, a.svc.store, cardID)
	if err != nil {
		return models.CardView{}, err
	}
	return a.svc.View(card)
}

// Activate moves a BLOCKED, unexpired card back to ACTIVE
func (a *AdminCards) Activate(ctx context.Context, cardID int64) (models.CardView, error) {
	return a.mutate(ctx, cardID, "activated", func(card *models.Card) error {
		return a.svc.transition(card, models.CardStatusActive)
	})
}

// Update applies a partial patch. A status in the patch goes through the
// same guards as Block and Activate.
func (a *AdminCards) Update(ctx context.Context, cardID int64, patch models.CardPatch) (models.CardView, error) {
	return a.mutate(ctx, cardID, "updated", func(card *models.Card) error {
		if patch.ExpirationDate != nil {
			expiration := models.Today(*patch.ExpirationDate)
			if !expiration.After(a.svc.today()) {
				return invalidInput("expiration date must be in the future")
			}
			card.ExpirationDate = expiration
		}
		if patch.Status != nil {
			return a.svc.transition(card, *patch.Status)
		}
		return nil
	})
}

// Delete removes a card regardless of its balance
func (a *AdminCards) Delete(ctx context.Context, cardID int64) error {
	err := a.svc.store.DeleteCard(ctx, cardID)
	if errors.Is(err, repository.ErrNotFound) {
		return cardNotFound(cardID)
	}
	if err != nil {
		return err
	}
	a.svc.log.Infof("Card %d deleted", cardID)
	return nil
}

func (a *AdminCards) mutate(ctx context.Context, cardID int64, verb string, apply func(*models.Card) error) (models.CardView, error) {
	var updated *models.Card
	err := a.svc.store.WithTx(ctx, func(tx repository.CardStore) error {
		card, err := a.find(ctx, tx, cardID)
		if err != nil {
			return err
		}
		if err := apply(card); err != nil {
			return err
		}
		if err := tx.SaveCard(ctx, card); err != nil {
			return err
		}
		updated = card
		return nil
	})
	if err != nil {
		return models.CardView{}, err
	}
	a.svc.log.Infof("Card %d %s", cardID, verb)
	return a.svc.View(updated)
}

func (a *AdminCards) find(ctx context.Context, store repository.CardStore, cardID int64) (*models.Card, error) {
	card, err := store.FindCardByID(ctx, cardID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, cardNotFound(cardID)
	}
	return card, err
}

// transition is the status state machine. It mutates card only on success.
func (s *CardService) transition(card *models.Card, to models.CardStatus) error {
	switch to {
	case models.CardStatusBlocked:
		if card.Status == models.CardStatusBlocked {
			return ErrAlreadyBlocked
		}
	case models.CardStatusActive:
		if card.Status == models.CardStatusActive {
			return ErrAlreadyActive
		}
		if card.IsExpired(s.now()) {
			return ErrCardExpired
		}
	default:
		return invalidInput("unknown card status %q", to)
	}
	card.Status = to
	return nil
}

func (s *CardService) notifyBlocked(ctx context.Context, view models.CardView) {
	if s.notifier == nil {
		return
	}
	owner, err := s.accounts.FindUserByID(ctx, view.OwnerID)
	if err != nil {
		s.log.Warnf("Failed to resolve owner of card %d for notification: %v", view.ID, err)
		return
	}
	if err := s.notifier.CardBlocked(ctx, owner, view); err != nil {
		s.log.Warnf("Failed to notify about blocked card %d: %v", view.ID, err)
	}
}
