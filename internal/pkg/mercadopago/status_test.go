package mercadopago

import (
	"testing"

	"github.com/recuerdame/webapp/app/models"
)

func TestMapPreapprovalStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"authorized", models.SubscriptionStatusActive},
		{"active", models.SubscriptionStatusActive},
		{"AUTHORIZED", models.SubscriptionStatusActive},
		{" pending ", models.SubscriptionStatusTrialing},
		{"paused", models.SubscriptionStatusPaused},
		{"cancelled", models.SubscriptionStatusCancelled},
		{"something-new", models.SubscriptionStatusPastDue},
		{"", models.SubscriptionStatusPastDue},
	}
	for _, c := range cases {
		if got := MapPreapprovalStatus(c.in); got != c.want {
			t.Fatalf("MapPreapprovalStatus(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMapPaymentStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"approved", models.PaymentStatusApproved},
		{"Approved", models.PaymentStatusApproved},
		{"rejected", models.PaymentStatusRejected},
		{"cancelled", models.PaymentStatusRejected},
		{"refunded", models.PaymentStatusRefunded},
		{"in_process", models.PaymentStatusPending},
		{"", models.PaymentStatusPending},
	}
	for _, c := range cases {
		if got := MapPaymentStatus(c.in); got != c.want {
			t.Fatalf("MapPaymentStatus(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBillingCycleFromFrequency(t *testing.T) {
	if got := BillingCycleFromFrequency(12); got != models.BillingCycleYearly {
		t.Fatalf("frequency 12 = %q, want YEARLY", got)
	}
	for _, f := range []int{0, 1, 3, 6, 24} {
		if got := BillingCycleFromFrequency(f); got != models.BillingCycleMonthly {
			t.Fatalf("frequency %d = %q, want MONTHLY", f, got)
		}
	}
}
