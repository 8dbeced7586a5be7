package models

import "time"

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusApproved = "APPROVED"
	PaymentStatusRejected = "REJECTED"
	PaymentStatusRefunded = "REFUNDED"
)

// Payment is a single Mercado Pago charge against a subscription. MpPaymentID
// is the idempotency key: repeated webhook delivery for the same id upserts
// the same row. MpStatus keeps the raw provider vocabulary for audit.
type Payment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	SubscriptionID uint       `gorm:"not null;index" json:"subscription_id"`
	Amount         int64      `gorm:"not null" json:"amount"`
	Currency       string     `gorm:"type:varchar(3);not null;default:'ARS'" json:"currency"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	MpPaymentID    string     `gorm:"type:varchar(191);uniqueIndex;not null" json:"mp_payment_id"`
	MpStatus       string     `gorm:"type:varchar(64)" json:"mp_status"`
	PaidAt         *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
