package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/recuerdame/webapp/app/models"
)

func seedEmails(t *testing.T, db *gorm.DB, userID uint) {
	t.Helper()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	subjects := []string{"Factura de luz", "Vuelo AEP-COR", "Newsletter"}
	senders := []string{"edesur@example.com", "aerolineas@example.com", "news@example.com"}
	for i := 0; i < 3; i++ {
		subject, sender := subjects[i], senders[i]
		require.NoError(t, db.Create(&models.ProcessedEmail{
			UserID:         userID,
			GmailMessageID: subject + "-msg",
			Subject:        &subject,
			Sender:         &sender,
			ReceivedAt:     base.Add(time.Duration(i) * time.Hour),
			ProcessedAt:    base.Add(time.Duration(i)*time.Hour + time.Minute),
			Status:         "processed",
		}).Error)
	}
}

func TestProcessedEmailRepositoryListByUser(t *testing.T) {
	db := setupTestDB(t)
	user := &models.User{Name: "Ana", Email: "ana@example.com", Password: "-", Role: models.ROLE_USER, Status: models.STATUS_ACTIVE}
	require.NoError(t, db.Create(user).Error)
	other := &models.User{Name: "Otro", Email: "otro@example.com", Password: "-", Role: models.ROLE_USER, Status: models.STATUS_ACTIVE}
	require.NoError(t, db.Create(other).Error)

	seedEmails(t, db, user.ID)
	repo := NewProcessedEmailRepository(db)

	emails, total, err := repo.ListByUser(user.ID, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, emails, 3)
	// Newest first.
	assert.Equal(t, "Newsletter", *emails[0].Subject)

	// Scoped to the requested user.
	_, total, err = repo.ListByUser(other.ID, "", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	// Subject and sender search.
	emails, total, err = repo.ListByUser(user.ID, "Factura", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Factura de luz", *emails[0].Subject)

	_, total, err = repo.ListByUser(user.ID, "aerolineas", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
