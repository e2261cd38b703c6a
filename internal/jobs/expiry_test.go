package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/repository"
	"github.com/Dan9191/bank-rest/internal/service"
	"github.com/Dan9191/bank-rest/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testKey = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"

type reminder struct {
	owner int64
	cards []models.CardView
}

type fakeSender struct {
	sent []reminder
	fail error
}

func (f *fakeSender) CardsExpiring(ctx context.Context, owner *models.User, cards []models.CardView) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, reminder{owner: owner.ID, cards: cards})
	return nil
}

func setup(t *testing.T) (*ExpiryReminder, *fakeSender, *repository.MemoryRepository, map[string]int64) {
	t.Helper()
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := repository.NewMemoryRepository()
	codec, err := utils.NewCardCodec(testKey, utils.CipherGCM, false)
	require.NoError(t, err)

	ivan := &models.User{Name: "Ivan", Email: "ivan@example.com", Roles: []models.Role{models.RoleUser}}
	petr := &models.User{Name: "Petr", Email: "petr@example.com", Roles: []models.Role{models.RoleUser}}
	require.NoError(t, repo.CreateUser(ctx, ivan))
	require.NoError(t, repo.CreateUser(ctx, petr))

	ids := make(map[string]int64)
	add := func(name string, owner int64, exp string, status models.CardStatus) {
		number, err := codec.Generate()
		require.NoError(t, err)
		enc, err := codec.Encrypt(number)
		require.NoError(t, err)
		date, err := time.Parse(models.DateLayout, exp)
		require.NoError(t, err)
		card := &models.Card{CardNumber: enc, ExpirationDate: date, Status: status, Balance: decimal.Zero, OwnerID: owner}
		require.NoError(t, repo.SaveCard(ctx, card))
		ids[name] = card.ID
	}
	add("soon", ivan.ID, "2026-03-20", models.CardStatusActive)
	add("edge", ivan.ID, "2026-04-14", models.CardStatusActive)
	add("later", ivan.ID, "2026-04-15", models.CardStatusActive)
	add("blocked", ivan.ID, "2026-03-20", models.CardStatusBlocked)
	add("today", petr.ID, "2026-03-15", models.CardStatusActive)

	cards := service.NewCardService(repo, repo, codec, nil, log)
	sender := &fakeSender{}
	job := NewExpiryReminder(repo, cards, repo, sender, 30, log)
	job.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }
	return job, sender, repo, ids
}

func TestExpiryReminderRun(t *testing.T) {
	job, sender, repo, ids := setup(t)

	sent, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, sent)
	require.Len(t, sender.sent, 2)

	byOwner := map[int64][]int64{}
	for _, r := range sender.sent {
		for _, c := range r.cards {
			require.Regexp(t, `^\*{4} \*{4} \*{4} \d{4}$`, c.MaskedCardNumber)
			byOwner[r.owner] = append(byOwner[r.owner], c.ID)
		}
	}
	require.ElementsMatch(t, []int64{ids["soon"], ids["edge"]}, byOwner[1])
	require.Equal(t, []int64{ids["today"]}, byOwner[2])

	// reminders never touch card status
	card, err := repo.FindCardByID(context.Background(), ids["soon"])
	require.NoError(t, err)
	require.Equal(t, models.CardStatusActive, card.Status)
}

func TestExpiryReminderSendFailure(t *testing.T) {
	job, sender, _, _ := setup(t)
	sender.fail = errors.New("smtp down")

	sent, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)
}

func TestNewScheduler(t *testing.T) {
	job, _, _, _ := setup(t)

	s, err := NewScheduler("0 9 * * *", job, logrus.New())
	require.NoError(t, err)
	s.Start()
	s.Stop()

	_, err = NewScheduler("every day", job, logrus.New())
	require.Error(t, err)
}
