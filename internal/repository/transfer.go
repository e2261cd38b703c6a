package repository

import (
	"context"
	"database/sql"

	"github.com/Dan9191/bank-rest/internal/models"
)

// CreateTransfer appends a record to the transfer ledger
func (r *Repository) CreateTransfer(ctx context.Context, t *models.Transfer) error {
	query := `
		INSERT INTO bank.transaction_history (reference, from_card_id, to_card_id, amount, description, initiated_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.q.QueryRowContext(ctx, query, t.Reference, t.FromCardID, t.ToCardID, t.Amount, t.Description, t.InitiatedBy).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return storeErr("create transfer", err)
	}
	return nil
}

// FindTransfersByCard returns one page of transfers touching the card, newest first
func (r *Repository) FindTransfersByCard(ctx context.Context, cardID int64, page models.PageRequest) (models.Page[models.Transfer], error) {
	page = page.Normalize()
	total, err := r.count(ctx, "count transfers",
		`SELECT COUNT(*) FROM bank.transaction_history WHERE from_card_id = $1 OR to_card_id = $1`, cardID)
	if err != nil {
		return models.Page[models.Transfer]{}, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, reference, from_card_id, to_card_id, amount, description, initiated_by_user_id, created_at
		FROM bank.transaction_history
		WHERE from_card_id = $1 OR to_card_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, cardID, page.Size, page.Offset())
	if err != nil {
		return models.Page[models.Transfer]{}, storeErr("find transfers", err)
	}
	defer rows.Close()

	var transfers []models.Transfer
	for rows.Next() {
		var (
			t        models.Transfer
			from, to sql.NullInt64
			desc     sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Reference, &from, &to, &t.Amount, &desc, &t.InitiatedBy, &t.CreatedAt); err != nil {
			return models.Page[models.Transfer]{}, storeErr("find transfers", err)
		}
		// Card ids are nulled when a card is deleted
		t.FromCardID, t.ToCardID, t.Description = from.Int64, to.Int64, desc.String
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Transfer]{}, storeErr("find transfers", err)
	}
	return models.NewPage(transfers, page, total), nil
}
