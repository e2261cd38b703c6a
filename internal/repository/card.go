package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
)

const cardColumns = `id, card_number, expiration_date, card_status, balance, owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	var (
		card   models.Card
		status string
	)
	if err := row.Scan(&card.ID, &card.CardNumber, &card.ExpirationDate, &status, &card.Balance, &card.OwnerID); err != nil {
		return nil, err
	}
	// Unknown statuses are rejected here rather than leaking into the core
	parsed, err := models.ParseCardStatus(status)
	if err != nil {
		return nil, err
	}
	card.Status = parsed
	card.ExpirationDate = models.Today(card.ExpirationDate)
	return &card, nil
}

func (r *Repository) findCard(ctx context.Context, op, query string, args ...any) (*models.Card, error) {
	card, err := scanCard(r.q.QueryRowContext(ctx, query+r.lockClause(), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(op, err)
	}
	return card, nil
}

// FindCardByID retrieves a card by id
func (r *Repository) FindCardByID(ctx context.Context, id int64) (*models.Card, error) {
	return r.findCard(ctx, "find card", `
		SELECT `+cardColumns+`
		FROM bank.cards
		WHERE id = $1`, id)
}

// FindCardByIDAndOwner retrieves a card only if it belongs to ownerID
func (r *Repository) FindCardByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Card, error) {
	return r.findCard(ctx, "find owner card", `
		SELECT `+cardColumns+`
		FROM bank.cards
		WHERE id = $1 AND owner_id = $2`, id, ownerID)
}

func (r *Repository) queryCards(ctx context.Context, op, query string, args ...any) ([]models.Card, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return cards, nil
}

func (r *Repository) count(ctx context.Context, op, query string, args ...any) (int64, error) {
	var total int64
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, storeErr(op, err)
	}
	return total, nil
}

// FindCardsByOwner returns one page of the owner's cards ordered by id
func (r *Repository) FindCardsByOwner(ctx context.Context, ownerID int64, page models.PageRequest) (models.Page[models.Card], error) {
	page = page.Normalize()
	total, err := r.count(ctx, "count owner cards", `SELECT COUNT(*) FROM bank.cards WHERE owner_id = $1`, ownerID)
	if err != nil {
		return models.Page[models.Card]{}, err
	}
	cards, err := r.queryCards(ctx, "find owner cards", `
		SELECT `+cardColumns+`
		FROM bank.cards
		WHERE owner_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`, ownerID, page.Size, page.Offset())
	if err != nil {
		return models.Page[models.Card]{}, err
	}
	return models.NewPage(cards, page, total), nil
}

// FindCardsByOwnerAndStatus returns one page of the owner's cards in status
func (r *Repository) FindCardsByOwnerAndStatus(ctx context.Context, ownerID int64, status models.CardStatus, page models.PageRequest) (models.Page[models.Card], error) {
	page = page.Normalize()
	total, err := r.count(ctx, "count owner cards by status",
		`SELECT COUNT(*) FROM bank.cards WHERE owner_id = $1 AND card_status = $2`, ownerID, string(status))
	if err != nil {
		return models.Page[models.Card]{}, err
	}
	cards, err := r.queryCards(ctx, "find owner cards by status", `
		SELECT `+cardColumns+`
		FROM bank.cards
		WHERE owner_id = $1 AND card_status = $2
		ORDER BY id
		LIMIT $3 OFFSET $4`, ownerID, string(status), page.Size, page.Offset())
	if err != nil {
		return models.Page[models.Card]{}, err
	}
	return models.NewPage(cards, page, total), nil
}

// FindAllCards returns every card
func (r *Repository) FindAllCards(ctx context.Context) ([]models.Card, error) {
	return r.queryCards(ctx, "find all cards", `SELECT `+cardColumns+` FROM bank.cards ORDER BY id`)
}

// FindActiveCardsExpiringBetween returns active cards whose expiration date is in [from, to]
func (r *Repository) FindActiveCardsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Card, error) {
	return r.queryCards(ctx, "find expiring cards", `
		SELECT `+cardColumns+`
		FROM bank.cards
		WHERE card_status = $1 AND expiration_date BETWEEN $2 AND $3
		ORDER BY expiration_date, id`, string(models.CardStatusActive), from, to)
}

// SaveCard creates a card or updates an existing one
func (r *Repository) SaveCard(ctx context.Context, card *models.Card) error {
	if card.ID == 0 {
		query := `
			INSERT INTO bank.cards (card_number, expiration_date, card_status, balance, owner_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`
		err := r.q.QueryRowContext(ctx, query, card.CardNumber, card.ExpirationDate, string(card.Status), card.Balance, card.OwnerID).
			Scan(&card.ID)
		if isUniqueViolation(err) {
			return fmt.Errorf("card number exists: %w", ErrConflict)
		}
		if err != nil {
			return storeErr("create card", err)
		}
		return nil
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE bank.cards
		SET expiration_date = $1, card_status = $2, balance = $3
		WHERE id = $4`, card.ExpirationDate, string(card.Status), card.Balance, card.ID)
	if err != nil {
		return storeErr("update card", err)
	}
	return expectAffected(res, "update card")
}

// DeleteCard removes a card
func (r *Repository) DeleteCard(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bank.cards WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete card", err)
	}
	return expectAffected(res, "delete card")
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
