package handler

import (
	"net/http"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/statement"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type CreateCardRequest struct {
	ExpirationDate string           `json:"expiration_date" validate:"required,datetime=2006-01-02"`
	Balance        *decimal.Decimal `json:"balance" validate:"omitempty,gte=0"`
}

type UpdateCardRequest struct {
	ExpirationDate *string `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Status         *string `json:"card_status" validate:"omitempty,oneof=ACTIVE BLOCKED"`
}

// CreateCard issues a card to the caller
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req CreateCardRequest
	if !h.decode(w, r, &req) {
		return
	}
	expiration, _ := time.Parse(models.DateLayout, req.ExpirationDate)

	view, err := h.svc.Cards.ForOwner(p.UserID).Create(r.Context(), models.NewCard{
		ExpirationDate: expiration,
		Balance:        req.Balance,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetMyCard returns one of the caller's cards
func (h *Handler) GetMyCard(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Cards.ForOwner(p.UserID).Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListMyCards returns one page of the caller's cards
func (h *Handler) ListMyCards(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	page, ok := pageRequest(w, r)
	if !ok {
		return
	}
	cards, err := h.svc.Cards.ForOwner(p.UserID).List(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// ListMyCardsByStatus returns one page of the caller's cards in a status
func (h *Handler) ListMyCardsByStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	status, err := models.ParseCardStatus(mux.Vars(r)["status"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	page, ok := pageRequest(w, r)
	if !ok {
		return
	}
	cards, err := h.svc.Cards.ForOwner(p.UserID).ListByStatus(r.Context(), status, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// BlockCard blocks one of the caller's cards
func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Cards.ForOwner(p.UserID).Block(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Statement renders the XML statement of one of the caller's cards
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, transfers, err := h.svc.Cards.ForOwner(p.UserID).History(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := statement.Render(view, transfers, time.Now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", statement.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// ListAllCards returns every card
func (h *Handler) ListAllCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.Cards.Admin().List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// GetAnyCard returns a card without an ownership check
func (h *Handler) GetAnyCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Cards.Admin().Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateCard applies a partial update
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	var patch models.CardPatch
	if req.ExpirationDate != nil {
		expiration, _ := time.Parse(models.DateLayout, *req.ExpirationDate)
		patch.ExpirationDate = &expiration
	}
	if req.Status != nil {
		status := models.CardStatus(*req.Status)
		patch.Status = &status
	}

	view, err := h.svc.Cards.Admin().Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ActivateCard returns a blocked card to ACTIVE
func (h *Handler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Cards.Admin().Activate(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteCard removes a card
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Cards.Admin().Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
