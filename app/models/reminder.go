package models

import "time"

const (
	ReminderStatusPending   = "PENDING"
	ReminderStatusSent      = "SENT"
	ReminderStatusCompleted = "COMPLETED"
	ReminderStatusCancelled = "CANCELLED"
)

const (
	RecurrenceNone    = "NONE"
	RecurrenceDaily   = "DAILY"
	RecurrenceWeekly  = "WEEKLY"
	RecurrenceMonthly = "MONTHLY"
	RecurrenceYearly  = "YEARLY"
)

const (
	ReminderSourceWeb      = "web"
	ReminderSourceBot      = "bot"
	ReminderSourceCalendar = "calendar"
	ReminderSourceEmail    = "email"
)

// Reminder is owned by exactly one user. Ownership moves (never copies) to
// the authenticated account when an orphan bot identity is merged.
type Reminder struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	ReminderText   string     `gorm:"type:text;not null" json:"reminder_text" validate:"required"`
	ScheduledAt    time.Time  `gorm:"not null;index" json:"scheduled_at"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status" validate:"oneof=PENDING SENT COMPLETED CANCELLED"`
	Recurrence     string     `gorm:"type:varchar(20);not null;default:'NONE'" json:"recurrence" validate:"oneof=NONE DAILY WEEKLY MONTHLY YEARLY"`
	RecurrenceDay  *int       `gorm:"default:null" json:"recurrence_day,omitempty"`
	RecurrenceTime *string    `gorm:"type:varchar(5);default:null" json:"recurrence_time,omitempty"`
	Source         string     `gorm:"type:varchar(20);not null;default:'web'" json:"source"`
	SentAt         *time.Time `gorm:"type:timestamp;default:null" json:"sent_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsRecurring reports whether the reminder repeats.
func (r *Reminder) IsRecurring() bool {
	return r.Recurrence != "" && r.Recurrence != RecurrenceNone
}
