package models

import "time"

// Commit is a deploy-log row pushed by the CI pipeline's webhook. The web
// app only reads it; the admin back office browses the log.
type Commit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SHA        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"sha"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Author     string    `gorm:"type:varchar(150)" json:"author"`
	URL        string    `gorm:"type:varchar(500)" json:"url"`
	Repository string    `gorm:"type:varchar(150);not null;index" json:"repository"`
	Branch     string    `gorm:"type:varchar(150);not null;index" json:"branch"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
