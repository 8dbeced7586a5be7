package models

import "time"

const (
	SubscriptionStatusTrialing  = "TRIALING"
	SubscriptionStatusActive    = "ACTIVE"
	SubscriptionStatusPastDue   = "PAST_DUE"
	SubscriptionStatusCancelled = "CANCELLED"
	SubscriptionStatusPaused    = "PAUSED"
)

const (
	BillingCycleMonthly = "MONTHLY"
	BillingCycleYearly  = "YEARLY"
)

// Subscription mirrors the Mercado Pago preapproval for a user, one row per
// user. MpSubscriptionID is the idempotency key for lifecycle webhook
// upserts; it is null for admin-assigned subscriptions that never touched
// the provider.
type Subscription struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanID             uint       `gorm:"not null;index" json:"plan_id"`
	Status             string     `gorm:"type:varchar(20);not null;default:'TRIALING';index" json:"status"`
	BillingCycle       string     `gorm:"type:varchar(10);not null;default:'MONTHLY'" json:"billing_cycle"`
	MpSubscriptionID   *string    `gorm:"type:varchar(191);uniqueIndex;default:null" json:"mp_subscription_id,omitempty"`
	MpPayerID          string     `gorm:"type:varchar(64)" json:"mp_payer_id"`
	CurrentPeriodStart *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelledAt        *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	TrialEndsAt        *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Plan     Plan      `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Payments []Payment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsEntitled reports whether the subscription currently grants access.
func (s *Subscription) IsEntitled() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}

// ValidSubscriptionStatus reports whether s is one of the local status values.
func ValidSubscriptionStatus(s string) bool {
	switch s {
	case SubscriptionStatusTrialing, SubscriptionStatusActive,
		SubscriptionStatusPastDue, SubscriptionStatusCancelled,
		SubscriptionStatusPaused:
		return true
	default:
		return false
	}
}
