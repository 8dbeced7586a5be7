package billing

import (
	"context"
	"errors"
	"time"
)

// ExternalSubscription is the provider subscription state re-fetched on every
// webhook delivery. Status carries the raw provider vocabulary; mapping to
// the local enumeration happens in the service.
type ExternalSubscription struct {
	ID              string
	UserRef         string // provider external_reference, our user public id
	PlanRef         string // provider plan id
	PayerID         string
	Status          string
	FrequencyMonths int
	NextPaymentDate *time.Time
}

// ExternalPayment is the provider payment state re-fetched on every webhook
// delivery. Amount is in major currency units as the provider reports it.
type ExternalPayment struct {
	ID       string
	UserRef  string
	Status   string
	Amount   float64
	Currency string
}

// Provider fetches authoritative billing state. The webhook payload is only a
// pointer; implementations must go back to the provider's API.
type Provider interface {
	FetchSubscription(ctx context.Context, id string) (*ExternalSubscription, error)
	FetchPayment(ctx context.Context, id string) (*ExternalPayment, error)
}

// Notifier delivers best-effort bot notifications. Implementations must never
// return delivery failures to the projector's callers.
type Notifier interface {
	NotifySubscriptionActivated(ctx context.Context, userPublicID string)
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// Permanent drop reasons. Events failing with one of these are logged,
// recorded and acknowledged to the provider; retrying cannot fix them.
var (
	ErrMalformedUpstreamEvent = errors.New("malformed upstream event")
	ErrUnknownPlan            = errors.New("no local plan matches provider plan reference")
	ErrUnknownUser            = errors.New("no local user matches provider user reference")
	ErrOrphanPayment          = errors.New("no subscription exists for payment's user reference")
)

// IsPermanentDrop reports whether err is a drop reason that should be
// acknowledged to the provider rather than retried.
func IsPermanentDrop(err error) bool {
	return errors.Is(err, ErrMalformedUpstreamEvent) ||
		errors.Is(err, ErrUnknownPlan) ||
		errors.Is(err, ErrUnknownUser) ||
		errors.Is(err, ErrOrphanPayment)
}
