package models

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

// LinkingCodeLength is the fixed length of bot-issued linking codes.
const LinkingCodeLength = 6

// Alphabet without easily confused characters (0/O, 1/I).
const linkingCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// LinkingCode is a one-time, time-boxed credential the bot hands out so a web
// account can claim a WhatsApp chat identity. It is mutated exactly once, at
// redemption.
type LinkingCode struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Code      string     `gorm:"type:varchar(6);uniqueIndex;not null" json:"code"`
	ChatID    string     `gorm:"type:varchar(32);not null;index" json:"chat_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `gorm:"type:timestamp;default:null" json:"used_at,omitempty"`
	UsedBy    *uint      `gorm:"default:null" json:"used_by,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// IsRedeemable reports whether the code can still be redeemed at the given time.
func (lc *LinkingCode) IsRedeemable(now time.Time) bool {
	return lc.UsedAt == nil && now.Before(lc.ExpiresAt)
}

// NormalizeLinkingCode uppercases and trims a user-submitted code. Codes are
// matched case-insensitively; storage is always uppercase.
func NormalizeLinkingCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateLinkingCode returns a random 6-character code from the linking
// alphabet. Uniqueness is enforced by the DB index, not here.
func GenerateLinkingCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(linkingCodeAlphabet)))
	for i := 0; i < LinkingCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(linkingCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
