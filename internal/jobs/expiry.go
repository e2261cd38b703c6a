package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ExpiringCards lists the active cards that expire inside a date range
type ExpiringCards interface {
	FindActiveCardsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Card, error)
}

// CardViewer masks persisted cards
type CardViewer interface {
	View(card *models.Card) (models.CardView, error)
}

// UserFinder resolves card owners
type UserFinder interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ReminderSender delivers one reminder per owner
type ReminderSender interface {
	CardsExpiring(ctx context.Context, owner *models.User, cards []models.CardView) error
}

// ExpiryReminder emails owners of active cards that expire within the
// configured number of days.
// It only reads cards.
type ExpiryReminder struct {
	cards  ExpiringCards
	viewer CardViewer
	users  UserFinder
	sender ReminderSender
	days   int
	log    *logrus.Logger
	now    func() time.Time
}

// NewExpiryReminder initializes the reminder job
func NewExpiryReminder(cards ExpiringCards, viewer CardViewer, users UserFinder, sender ReminderSender, days int, log *logrus.Logger) *ExpiryReminder {
	return &ExpiryReminder{
		cards:  cards,
		viewer: viewer,
		users:  users,
		sender: sender,
		days:   days,
		log:    log,
		now:    time.Now,
	}
}

// Run sends the reminders once and returns the number of owners notified
func (j *ExpiryReminder) Run(ctx context.Context) (int, error) {
	from := models.Today(j.now())
	to := from.AddDate(0, 0, j.days)

	cards, err := j.cards.FindActiveCardsExpiringBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring cards: %w", err)
	}

	var owners []int64
	byOwner := make(map[int64][]models.CardView)
	for i := range cards {
		view, err := j.viewer.View(&cards[i])
		if err != nil {
			continue
		}
		if _, seen := byOwner[view.OwnerID]; !seen {
			owners = append(owners, view.OwnerID)
		}
		byOwner[view.OwnerID] = append(byOwner[view.OwnerID], view)
	}

	sent := 0
	for _, ownerID := range owners {
		owner, err := j.users.FindUserByID(ctx, ownerID)
		if err != nil {
			j.log.Warnf("Failed to resolve owner %d for expiry reminder: %v", ownerID, err)
			continue
		}
		if err := j.sender.CardsExpiring(ctx, owner, byOwner[ownerID]); err != nil {
			j.log.Warnf("Failed to send expiry reminder to user %d: %v", ownerID, err)
			continue
		}
		sent++
	}

	j.log.Infof("Expiry reminders: %d cards, %d owners notified", len(cards), sent)
	return sent, nil
}

// Scheduler runs the reminder job on a cron spec
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers job under spec (standard 5-field cron syntax, UTC)
func NewScheduler(spec string, job *ExpiryReminder, log *logrus.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		if _, err := job.Run(context.Background()); err != nil {
			log.Errorf("Expiry reminder job failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
