package models

import "time"

// ProcessedEmail is the audit row the bot's Gmail ingestion writes for every
// mail it turned into (or rejected as) a reminder. The web app exposes the
// log read-only to admins; rows are created by the bot service.
type ProcessedEmail struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	GmailMessageID string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"gmail_message_id"`
	Subject        *string   `gorm:"type:varchar(500);default:null" json:"subject,omitempty"`
	Sender         *string   `gorm:"type:varchar(320);default:null" json:"sender,omitempty"`
	ReceivedAt     time.Time `gorm:"not null;index" json:"received_at"`
	ProcessedAt    time.Time `gorm:"not null" json:"processed_at"`
	Status         string    `gorm:"type:varchar(30);not null" json:"status"`
	EmailType      *string   `gorm:"type:varchar(50);default:null" json:"email_type,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
