package handler

import (
	"net/http"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/shopspring/decimal"
)

type TransferRequest struct {
	FromCardID  int64           `json:"from_card_id" validate:"required,gt=0"`
	ToCardID    int64           `json:"to_card_id" validate:"required,gt=0,nefield=FromCardID"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Description string          `json:"description" validate:"max=255"`
}

// Transfer moves funds between two of the caller's cards
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.svc.Transfers.Transfer(r.Context(), models.TransferIntent{
		FromCardID:  req.FromCardID,
		ToCardID:    req.ToCardID,
		Amount:      req.Amount,
		Description: req.Description,
	}, p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ListTransfers returns one page of ledger entries touching one of the caller's cards
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	page, ok := pageRequest(w, r)
	if !ok {
		return
	}
	transfers, err := h.svc.Cards.ForOwner(p.UserID).Transfers(r.Context(), id, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transfers)
}
