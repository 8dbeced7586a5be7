package models

import "time"

// Plan is a sellable subscription tier. The MpPlanID* columns hold the
// Mercado Pago preapproval plan ids and are the join keys used when webhook
// events reference a provider plan.
type Plan struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Code            string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" validate:"required"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name" validate:"required"`
	Description     string    `gorm:"type:text" json:"description"`
	PriceMonthly    int64     `gorm:"not null" json:"price_monthly"`
	PriceYearly     int64     `gorm:"not null" json:"price_yearly"`
	Currency        string    `gorm:"type:varchar(3);not null;default:'ARS'" json:"currency"`
	FeaturesJSON    string    `gorm:"type:text" json:"features_json"`
	MaxReminders    *int      `gorm:"default:null" json:"max_reminders,omitempty"`
	MaxEmailAccts   int       `gorm:"default:0" json:"max_email_accounts"`
	HasCalendarSync bool      `gorm:"default:false" json:"has_calendar_sync"`
	HasEmailSync    bool      `gorm:"default:false" json:"has_email_sync"`
	TrialDays       int       `gorm:"default:0" json:"trial_days"`
	SortOrder       int       `gorm:"default:0" json:"sort_order"`
	IsActive        bool      `gorm:"default:true;index" json:"is_active"`
	MpPlanIDMonthly *string   `gorm:"type:varchar(191);uniqueIndex;default:null" json:"mp_plan_id_monthly,omitempty"`
	MpPlanIDYearly  *string   `gorm:"type:varchar(191);uniqueIndex;default:null" json:"mp_plan_id_yearly,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MpPlanIDFor returns the provider plan id for the given billing cycle, or
// empty when the plan is not configured for payments on that cycle.
func (p *Plan) MpPlanIDFor(cycle string) string {
	if cycle == BillingCycleYearly {
		if p.MpPlanIDYearly != nil {
			return *p.MpPlanIDYearly
		}
		return ""
	}
	if p.MpPlanIDMonthly != nil {
		return *p.MpPlanIDMonthly
	}
	return ""
}

// MatchesMpPlanID reports whether either cycle's provider plan id equals the
// given id.
func (p *Plan) MatchesMpPlanID(mpPlanID string) bool {
	if mpPlanID == "" {
		return false
	}
	if p.MpPlanIDMonthly != nil && *p.MpPlanIDMonthly == mpPlanID {
		return true
	}
	return p.MpPlanIDYearly != nil && *p.MpPlanIDYearly == mpPlanID
}
