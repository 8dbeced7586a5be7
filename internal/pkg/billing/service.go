package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/internal/pkg/mercadopago"
	"gorm.io/gorm"
)

// ProviderMercadoPago tags webhook events and subscriptions synced from
// Mercado Pago.
const ProviderMercadoPago = "mercadopago"

const defaultPeriod = 30 * 24 * time.Hour

// Service folds asynchronous provider webhook events into local subscription
// and payment rows. Every operation is idempotent under retries, duplicates
// and out-of-order delivery: state is derived from (fresh provider state,
// current local row), never from delivery order.
type Service struct {
	repo     Repository
	provider Provider
	notifier Notifier
}

// NewService creates a billing service from injected collaborators. notifier
// may be nil when bot notifications are not configured.
func NewService(repo Repository, provider Provider, notifier Notifier) *Service {
	return &Service{repo: repo, provider: provider, notifier: notifier}
}

// NewServiceFromDB wires the service with the GORM repository and the
// Mercado Pago API client.
func NewServiceFromDB(db *gorm.DB, provider Provider, notifier Notifier) *Service {
	return NewService(NewRepository(db), provider, notifier)
}

// ApplySubscriptionEvent ingests a subscription-lifecycle webhook event.
// The externalSubscriptionID from the payload is only a pointer; authoritative
// state is re-fetched from the provider.
func (s *Service) ApplySubscriptionEvent(ctx context.Context, externalSubscriptionID string) error {
	ext, err := s.provider.FetchSubscription(ctx, externalSubscriptionID)
	if err != nil {
		return fmt.Errorf("fetch preapproval %s: %w", externalSubscriptionID, err)
	}

	if strings.TrimSpace(ext.UserRef) == "" || strings.TrimSpace(ext.PlanRef) == "" {
		return fmt.Errorf("preapproval %s missing external_reference or plan id: %w",
			externalSubscriptionID, ErrMalformedUpstreamEvent)
	}

	plan, err := s.repo.FindPlanByMpPlanID(ext.PlanRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("provider plan %s: %w", ext.PlanRef, ErrUnknownPlan)
		}
		return err
	}

	user, err := s.repo.FindUserByPublicID(ext.UserRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user reference %s: %w", ext.UserRef, ErrUnknownUser)
		}
		return err
	}

	status := mercadopago.MapPreapprovalStatus(ext.Status)
	cycle := mercadopago.BillingCycleFromFrequency(ext.FrequencyMonths)

	existing, err := s.repo.FindSubscriptionByMpID(externalSubscriptionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if existing != nil {
		// Update overwrites only status and, when the provider sent a next
		// charge date, the period end. Identity fields stay as created.
		return s.repo.UpdateSubscription(existing.ID, status, ext.NextPaymentDate)
	}

	now := time.Now()
	periodEnd := ext.NextPaymentDate
	if periodEnd == nil {
		t := now.Add(defaultPeriod)
		periodEnd = &t
	}
	mpID := externalSubscriptionID
	sub := &models.Subscription{
		UserID:             user.ID,
		PlanID:             plan.ID,
		Status:             status,
		BillingCycle:       cycle,
		MpSubscriptionID:   &mpID,
		MpPayerID:          ext.PayerID,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   periodEnd,
	}
	if err := s.repo.CreateSubscription(sub); err != nil {
		return err
	}

	// Only a genuinely new row notifies here; later transitions into ACTIVE
	// are announced by the payment path instead.
	if status == models.SubscriptionStatusActive || status == models.SubscriptionStatusTrialing {
		s.notifyActivated(ctx, user.PublicID)
	}
	return nil
}

// ApplyPaymentEvent ingests a payment-lifecycle webhook event, upserting the
// payment row and reactivating the subscription on approval.
func (s *Service) ApplyPaymentEvent(ctx context.Context, externalPaymentID string) error {
	ext, err := s.provider.FetchPayment(ctx, externalPaymentID)
	if err != nil {
		return fmt.Errorf("fetch payment %s: %w", externalPaymentID, err)
	}

	if strings.TrimSpace(ext.UserRef) == "" {
		return fmt.Errorf("payment %s missing external_reference: %w",
			externalPaymentID, ErrMalformedUpstreamEvent)
	}

	user, err := s.repo.FindUserByPublicID(ext.UserRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("payment %s user reference %s: %w",
				externalPaymentID, ext.UserRef, ErrOrphanPayment)
		}
		return err
	}

	sub, err := s.repo.FindSubscriptionByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("payment %s for user %s: %w",
				externalPaymentID, ext.UserRef, ErrOrphanPayment)
		}
		return err
	}

	status := mercadopago.MapPaymentStatus(ext.Status)
	currency := strings.TrimSpace(ext.Currency)
	if currency == "" {
		currency = "ARS"
	}

	payment := &models.Payment{
		SubscriptionID: sub.ID,
		Amount:         int64(math.Round(ext.Amount * 100)),
		Currency:       currency,
		Status:         status,
		MpPaymentID:    externalPaymentID,
		MpStatus:       ext.Status,
	}
	if status == models.PaymentStatusApproved {
		now := time.Now()
		payment.PaidAt = &now
	}
	if err := s.repo.UpsertPayment(payment); err != nil {
		return err
	}

	// A successful charge always reactivates, whatever the prior status.
	if status == models.PaymentStatusApproved {
		wasActive := sub.Status == models.SubscriptionStatusActive
		if err := s.repo.SetSubscriptionStatus(sub.ID, models.SubscriptionStatusActive); err != nil {
			return err
		}
		if !wasActive {
			s.notifyActivated(ctx, user.PublicID)
		}
	}
	return nil
}

// RecordWebhookEvent persists webhook payloads idempotently. The returned
// bool is false when the delivery was already seen.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

func (s *Service) notifyActivated(ctx context.Context, userPublicID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifySubscriptionActivated(ctx, userPublicID)
}
