package models

import (
	"strings"
	"time"
	"unicode"
)

// Contact is an entry in the bot-side address book. It is keyed by the chat
// identity rather than the user id so the bot can resolve names before a web
// account exists; (chat_id, name) is unique.
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    string    `gorm:"type:varchar(32);not null;index:ux_contacts_chat_name,unique,priority:1" json:"chat_id"`
	Name      string    `gorm:"type:varchar(150);not null;index:ux_contacts_chat_name,unique,priority:2" json:"name" validate:"required"`
	Phone     string    `gorm:"type:varchar(32);not null" json:"phone" validate:"required"`
	Alias     *string   `gorm:"type:varchar(150);default:null" json:"alias,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NormalizePhone canonicalizes an Argentine phone number to digits with the
// country prefix. Numbers already carrying "54" pass through; a leading zero
// or a bare 10-digit number gets the prefix prepended.
func NormalizePhone(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	digits := sb.String()
	switch {
	case strings.HasPrefix(digits, "54"):
		return digits
	case strings.HasPrefix(digits, "0"):
		return "54" + digits[1:]
	case len(digits) == 10:
		return "54" + digits
	default:
		return digits
	}
}
