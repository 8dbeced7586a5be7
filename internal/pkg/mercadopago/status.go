package mercadopago

import (
	"strings"

	"github.com/recuerdame/webapp/app/models"
)

// MapPreapprovalStatus converts the provider subscription vocabulary to the
// local enumeration. The mapping is total: every input produces exactly one
// local status, and unrecognized strings map to PAST_DUE as a conservative
// default.
func MapPreapprovalStatus(mpStatus string) string {
	switch strings.ToLower(strings.TrimSpace(mpStatus)) {
	case "authorized", "active":
		return models.SubscriptionStatusActive
	case "pending":
		return models.SubscriptionStatusTrialing
	case "paused":
		return models.SubscriptionStatusPaused
	case "cancelled":
		return models.SubscriptionStatusCancelled
	default:
		return models.SubscriptionStatusPastDue
	}
}

// MapPaymentStatus converts the provider payment vocabulary to the local
// enumeration. Anything unrecognized, including the empty string, is PENDING.
func MapPaymentStatus(mpStatus string) string {
	switch strings.ToLower(strings.TrimSpace(mpStatus)) {
	case "approved":
		return models.PaymentStatusApproved
	case "rejected", "cancelled":
		return models.PaymentStatusRejected
	case "refunded":
		return models.PaymentStatusRefunded
	default:
		return models.PaymentStatusPending
	}
}

// BillingCycleFromFrequency derives the local billing cycle from the
// preapproval recurrence frequency: 12 months means yearly, everything else
// monthly. Coarse, but it is the vocabulary the product inherited.
func BillingCycleFromFrequency(frequency int) string {
	if frequency == 12 {
		return models.BillingCycleYearly
	}
	return models.BillingCycleMonthly
}
