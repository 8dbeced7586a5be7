package entitlements

import (
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/app/repository"
)

var (
	testDB     *gorm.DB
	testDBOnce sync.Once
)

// setupTestDB shares one in-memory database across the package's tests; the
// repository factory binds to a single *gorm.DB for the process lifetime.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBOnce.Do(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err)
		require.NoError(t, db.AutoMigrate(
			&models.User{}, &models.Plan{}, &models.Subscription{}, &models.Reminder{},
		))
		repository.InitializeFactory(db)
		testDB = db
	})
	return testDB
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test", Email: email, Password: "-", Role: models.ROLE_USER, Status: models.STATUS_ACTIVE}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestForUserWithoutSubscription(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "free@example.com")

	ent := ForUser(user.ID)
	assert.Equal(t, FreeTierPlanCode, ent.PlanCode)
	require.NotNil(t, ent.MaxReminders)
	assert.Equal(t, FreeTierMaxReminders, *ent.MaxReminders)
	assert.False(t, ent.CalendarSync)
}

func TestForUserWithActiveSubscription(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "pro@example.com")

	plan := &models.Plan{Code: "pro", Name: "Pro", HasCalendarSync: true, HasEmailSync: true, MaxEmailAccts: 2}
	require.NoError(t, db.Create(plan).Error)
	require.NoError(t, db.Create(&models.Subscription{
		UserID: user.ID, PlanID: plan.ID, Status: models.SubscriptionStatusActive,
	}).Error)

	ent := ForUser(user.ID)
	assert.Equal(t, "pro", ent.PlanCode)
	assert.Nil(t, ent.MaxReminders)
	assert.True(t, ent.CalendarSync)
	assert.True(t, ent.EmailSync)
	assert.Equal(t, 2, ent.MaxEmailAccounts)
}

func TestForUserLapsedSubscriptionFallsBackToFreeTier(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "lapsed@example.com")

	plan := &models.Plan{Code: "pro2", Name: "Pro", HasCalendarSync: true}
	require.NoError(t, db.Create(plan).Error)
	require.NoError(t, db.Create(&models.Subscription{
		UserID: user.ID, PlanID: plan.ID, Status: models.SubscriptionStatusPastDue,
	}).Error)

	ent := ForUser(user.ID)
	assert.Equal(t, FreeTierPlanCode, ent.PlanCode)
	assert.False(t, ent.CalendarSync)
}

func TestCheckReminderQuota(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "quota@example.com")

	max := 2
	plan := &models.Plan{Code: "mini", Name: "Mini", MaxReminders: &max}
	require.NoError(t, db.Create(plan).Error)
	require.NoError(t, db.Create(&models.Subscription{
		UserID: user.ID, PlanID: plan.ID, Status: models.SubscriptionStatusActive,
	}).Error)

	for i := 0; i < max; i++ {
		_, err := CheckReminderQuota(user.ID)
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.Reminder{
			UserID:       user.ID,
			ReminderText: "algo",
			ScheduledAt:  time.Now().Add(time.Hour),
			Status:       models.ReminderStatusPending,
			Recurrence:   models.RecurrenceNone,
			Source:       models.ReminderSourceWeb,
		}).Error)
	}

	_, err := CheckReminderQuota(user.ID)
	assert.ErrorIs(t, err, ErrReminderLimitReached)
}
