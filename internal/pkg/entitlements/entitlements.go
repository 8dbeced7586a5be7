package entitlements

import (
	"errors"

	"gorm.io/gorm"

	"github.com/recuerdame/webapp/app/repository"
)

// Free-tier limits applied to every account without an entitled subscription.
const (
	FreeTierPlanCode     = "free"
	FreeTierMaxReminders = 10
)

// Entitlements are the effective feature limits for one user, derived from
// the subscription's plan. A nil MaxReminders means unlimited.
type Entitlements struct {
	PlanCode         string `json:"plan_code"`
	MaxReminders     *int   `json:"max_reminders,omitempty"`
	CalendarSync     bool   `json:"calendar_sync"`
	EmailSync        bool   `json:"email_sync"`
	MaxEmailAccounts int    `json:"max_email_accounts"`
}

// FreeTier returns the limits for users without an entitled subscription.
func FreeTier() Entitlements {
	max := FreeTierMaxReminders
	return Entitlements{
		PlanCode:     FreeTierPlanCode,
		MaxReminders: &max,
	}
}

// ForUser resolves the user's effective entitlements. Subscriptions in
// PAST_DUE, PAUSED or CANCELLED fall back to the free tier; the rows stay so
// a later reactivation restores the plan.
func ForUser(userID uint) Entitlements {
	repos := repository.GetGlobalRepositories()

	sub, err := repos.Subscription.GetByUserID(userID)
	if err != nil || !sub.IsEntitled() {
		return FreeTier()
	}
	plan, err := repos.Plan.GetByID(sub.PlanID)
	if err != nil {
		return FreeTier()
	}

	return Entitlements{
		PlanCode:         plan.Code,
		MaxReminders:     plan.MaxReminders,
		CalendarSync:     plan.HasCalendarSync,
		EmailSync:        plan.HasEmailSync,
		MaxEmailAccounts: plan.MaxEmailAccts,
	}
}

// ErrReminderLimitReached is returned when the plan's reminder quota is used up.
var ErrReminderLimitReached = errors.New("reminder limit for the current plan reached")

// CheckReminderQuota verifies the user may create another reminder. The quota
// counts stored reminders, whatever their status.
func CheckReminderQuota(userID uint) (Entitlements, error) {
	ent := ForUser(userID)
	if ent.MaxReminders == nil {
		return ent, nil
	}

	count, err := repository.GetGlobalRepositories().Reminder.CountByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ent, err
	}
	if count >= int64(*ent.MaxReminders) {
		return ent, ErrReminderLimitReached
	}
	return ent, nil
}
