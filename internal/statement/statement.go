package statement

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/beevik/etree"
)

// ContentType of a rendered statement
const ContentType = "application/xml; charset=utf-8"

// Direction of a transfer relative to the statement card
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Render builds the XML statement of card listing transfers
func Render(card models.CardView, transfers []models.Transfer, generatedAt time.Time) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Statement")
	root.CreateAttr("generatedAt", generatedAt.UTC().Format(time.RFC3339))

	c := root.CreateElement("Card")
	c.CreateAttr("id", strconv.FormatInt(card.ID, 10))
	c.CreateAttr("number", card.MaskedCardNumber)
	c.CreateAttr("expirationDate", card.ExpirationDate)
	c.CreateAttr("status", card.Status.String())
	c.CreateAttr("balance", card.Balance.StringFixed(2))

	list := root.CreateElement("Transfers")
	list.CreateAttr("count", strconv.Itoa(len(transfers)))
	for _, t := range transfers {
		direction := DirectionOut
		if t.ToCardID == card.ID {
			direction = DirectionIn
		}
		e := list.CreateElement("Transfer")
		e.CreateAttr("reference", t.Reference.String())
		e.CreateAttr("direction", direction)
		e.CreateAttr("fromCardId", strconv.FormatInt(t.FromCardID, 10))
		e.CreateAttr("toCardId", strconv.FormatInt(t.ToCardID, 10))
		e.CreateAttr("amount", t.Amount.StringFixed(2))
		e.CreateAttr("createdAt", t.CreatedAt.UTC().Format(time.RFC3339))
		if t.Description != "" {
			e.CreateElement("Description").SetText(t.Description)
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write statement: %w", err)
	}
	return out, nil
}
