package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
)

// MemoryRepository keeps everything in process memory. A single mutex
// serializes all access; WithTx holds it for the whole callback and
// restores a snapshot when the callback fails.
type MemoryRepository struct {
	mu    *sync.Mutex
	state *memoryState
	inTx  bool
}

type memoryState struct {
	cards      map[int64]models.Card
	users      map[int64]models.User
	transfers  []models.Transfer
	lastCardID int64
	lastUserID int64
	lastTxID   int64
}

// NewMemoryRepository returns an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		mu: &sync.Mutex{},
		state: &memoryState{
			cards: make(map[int64]models.Card),
			users: make(map[int64]models.User),
		},
	}
}

func (s *memoryState) clone() *memoryState {
	cp := *s
	cp.cards = make(map[int64]models.Card, len(s.cards))
	for id, c := range s.cards {
		cp.cards[id] = c
	}
	cp.users = make(map[int64]models.User, len(s.users))
	for id, u := range s.users {
		cp.users[id] = u
	}
	cp.transfers = append([]models.Transfer(nil), s.transfers...)
	return &cp
}

func (r *MemoryRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// WithTx runs fn while holding the store lock
func (r *MemoryRepository) WithTx(ctx context.Context, fn func(CardStore) error) error {
	if r.inTx {
		return fn(r)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state.clone()
	defer func() {
		if p := recover(); p != nil {
			*r.state = *snapshot
			panic(p)
		}
	}()
	if err := fn(&MemoryRepository{mu: r.mu, state: r.state, inTx: true}); err != nil {
		*r.state = *snapshot
		return err
	}
	return nil
}

func (r *MemoryRepository) FindCardByID(ctx context.Context, id int64) (*models.Card, error) {
	defer r.lock()()
	card, ok := r.state.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &card, nil
}

func (r *MemoryRepository) FindCardByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Card, error) {
	defer r.lock()()
	card, ok := r.state.cards[id]
	if !ok || card.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &card, nil
}

func (r *MemoryRepository) FindCardsByOwner(ctx context.Context, ownerID int64, page models.PageRequest) (models.Page[models.Card], error) {
	defer r.lock()()
	return paginate(r.state.sortedCards(func(c models.Card) bool {
		return c.OwnerID == ownerID
	}), page.Normalize()), nil
}

func (r *MemoryRepository) FindCardsByOwnerAndStatus(ctx context.Context, ownerID int64, status models.CardStatus, page models.PageRequest) (models.Page[models.Card], error) {
	defer r.lock()()
	return paginate(r.state.sortedCards(func(c models.Card) bool {
		return c.OwnerID == ownerID && c.Status == status
	}), page.Normalize()), nil
}

func (r *MemoryRepository) FindAllCards(ctx context.Context) ([]models.Card, error) {
	defer r.lock()()
	return r.state.sortedCards(func(models.Card) bool { return true }), nil
}

func (r *MemoryRepository) FindActiveCardsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Card, error) {
	defer r.lock()()
	return r.state.sortedCards(func(c models.Card) bool {
		return c.Status == models.CardStatusActive &&
			!c.ExpirationDate.Before(from) && !c.ExpirationDate.After(to)
	}), nil
}

func (r *MemoryRepository) SaveCard(ctx context.Context, card *models.Card) error {
	defer r.lock()()
	if card.ID == 0 {
		for _, c := range r.state.cards {
			if c.CardNumber == card.CardNumber {
				return fmt.Errorf("card number exists: %w", ErrConflict)
			}
		}
		r.state.lastCardID++
		card.ID = r.state.lastCardID
		r.state.cards[card.ID] = *card
		return nil
	}

	existing, ok := r.state.cards[card.ID]
	if !ok {
		return ErrNotFound
	}
	// card number and owner are immutable once created
	existing.ExpirationDate = card.ExpirationDate
	existing.Status = card.Status
	existing.Balance = card.Balance
	r.state.cards[card.ID] = existing
	return nil
}

func (r *MemoryRepository) DeleteCard(ctx context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.state.cards[id]; !ok {
		return ErrNotFound
	}
	delete(r.state.cards, id)
	for i := range r.state.transfers {
		if r.state.transfers[i].FromCardID == id {
			r.state.transfers[i].FromCardID = 0
		}
		if r.state.transfers[i].ToCardID == id {
			r.state.transfers[i].ToCardID = 0
		}
	}
	return nil
}

func (r *MemoryRepository) CreateTransfer(ctx context.Context, t *models.Transfer) error {
	defer r.lock()()
	r.state.lastTxID++
	t.ID = r.state.lastTxID
	t.CreatedAt = time.Now().UTC()
	r.state.transfers = append(r.state.transfers, *t)
	return nil
}

func (r *MemoryRepository) FindTransfersByCard(ctx context.Context, cardID int64, page models.PageRequest) (models.Page[models.Transfer], error) {
	defer r.lock()()
	var out []models.Transfer
	for i := len(r.state.transfers) - 1; i >= 0; i-- {
		t := r.state.transfers[i]
		if t.FromCardID == cardID || t.ToCardID == cardID {
			out = append(out, t)
		}
	}
	return paginate(out, page.Normalize()), nil
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	defer r.lock()()
	for _, u := range r.state.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, ErrConflict)
		}
	}
	r.state.lastUserID++
	user.ID = r.state.lastUserID
	user.CreatedAt = time.Now().UTC()
	r.state.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *MemoryRepository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	defer r.lock()()
	u, ok := r.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (r *MemoryRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.lock()()
	for _, u := range r.state.users {
		if u.Email == email {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) FindAllUsers(ctx context.Context) ([]models.User, error) {
	defer r.lock()()
	users := make([]models.User, 0, len(r.state.users))
	for _, u := range r.state.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func cloneUser(u models.User) models.User {
	u.Roles = append([]models.Role(nil), u.Roles...)
	return u
}

func (s *memoryState) sortedCards(keep func(models.Card) bool) []models.Card {
	var out []models.Card
	for _, c := range s.cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func paginate[T any](items []T, page models.PageRequest) models.Page[T] {
	total := int64(len(items))
	start := page.Offset()
	if start < 0 || start > len(items) {
		start = len(items)
	}
	end := start + min(page.Size, len(items)-start)
	return models.NewPage(items[start:end], page, total)
}
