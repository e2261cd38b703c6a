package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/bank-rest/internal/config"
	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}

func (s *Sender) deliver(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body + "\nBest regards,\nBank Service")

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// CardBlocked tells the owner that one of their cards was blocked
func (s *Sender) CardBlocked(ctx context.Context, owner *models.User, card models.CardView) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your card %s has been blocked.\n"+
			"Time: %s\n"+
			"If you did not request this, please contact the bank.\n",
		owner.Name, card.MaskedCardNumber, time.Now().Format("2006-01-02 15:04:05"),
	)
	return s.deliver(owner.Email, "Card Blocked Notification", body)
}

// TransferCompleted sends a notification email for a transfer between the owner's cards
func (s *Sender) TransferCompleted(ctx context.Context, owner *models.User, from, to models.CardView, transfer models.Transfer) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"An amount of %s has been transferred from card %s to card %s.\n"+
			"Reference: %s\n"+
			"Current balance of %s: %s\n"+
			"Current balance of %s: %s\n",
		owner.Name, transfer.Amount.StringFixed(2), from.MaskedCardNumber, to.MaskedCardNumber,
		transfer.Reference,
		from.MaskedCardNumber, from.Balance.StringFixed(2),
		to.MaskedCardNumber, to.Balance.StringFixed(2),
	)
	if transfer.Description != "" {
		body += fmt.Sprintf("Description: %s\n", transfer.Description)
	}
	return s.deliver(owner.Email, "Transfer Notification", body)
}

// CardsExpiring reminds the owner about cards that expire soon
func (s *Sender) CardsExpiring(ctx context.Context, owner *models.User, cards []models.CardView) error {
	var lines strings.Builder
	for _, c := range cards {
		fmt.Fprintf(&lines, "  %s expires on %s\n", c.MaskedCardNumber, c.ExpirationDate)
	}
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"The following cards expire soon:\n%s"+
			"Please request a replacement before the expiration date.\n",
		owner.Name, lines.String(),
	)
	return s.deliver(owner.Email, "Card Expiration Reminder", body)
}
