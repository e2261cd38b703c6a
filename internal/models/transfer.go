package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferIntent is a request to move funds between two cards of the same owner
type TransferIntent struct {
	FromCardID  int64
	ToCardID    int64
	Amount      decimal.Decimal
	Description string
}

// Transfer is a ledger record of a completed transfer
type Transfer struct {
	ID          int64           `json:"id"`
	Reference   uuid.UUID       `json:"reference"`
	FromCardID  int64           `json:"from_card_id"`
	ToCardID    int64           `json:"to_card_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	InitiatedBy int64           `json:"initiated_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
