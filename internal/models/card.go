package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle status of a card
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
)

// ParseCardStatus validates a status read from a request or from the database
func ParseCardStatus(s string) (CardStatus, error) {
	switch CardStatus(s) {
	case CardStatusActive, CardStatusBlocked:
		return CardStatus(s), nil
	}
	return "", fmt.Errorf("invalid card status: %q", s)
}

func (s CardStatus) String() string {
	return string(s)
}

// DateLayout is the wire and display format of card expiration dates
const DateLayout = "2006-01-02"

// Card represents a bank card as it is persisted.
// CardNumber always holds the encrypted form.
type Card struct {
	ID             int64
	CardNumber     string
	ExpirationDate time.Time
	Status         CardStatus
	Balance        decimal.Decimal
	OwnerID        int64
}

// IsExpired reports whether the expiration date lies before the day of now.
func (c *Card) IsExpired(now time.Time) bool {
	return c.ExpirationDate.Before(Today(now))
}

// Today truncates t to midnight UTC of its calendar day.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CardView is what callers outside the core see: the number is always masked
type CardView struct {
	ID               int64           `json:"id"`
	MaskedCardNumber string          `json:"masked_card_number"`
	ExpirationDate   string          `json:"expiration_date"`
	Status           CardStatus      `json:"card_status"`
	Balance          decimal.Decimal `json:"balance"`
	OwnerID          int64           `json:"owner_id"`
}

// NewCard holds the caller-supplied fields of a card creation
type NewCard struct {
	ExpirationDate time.Time
	Balance        *decimal.Decimal
}

// CardPatch is a partial update; nil fields are left untouched
type CardPatch struct {
	ExpirationDate *time.Time
	Status         *CardStatus
}
