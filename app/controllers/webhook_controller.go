package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/recuerdame/webapp/internal/pkg/billing"
	"github.com/recuerdame/webapp/internal/pkg/botnotify"
	"github.com/recuerdame/webapp/internal/pkg/database"
	"github.com/recuerdame/webapp/internal/pkg/env"
	"github.com/recuerdame/webapp/internal/pkg/mercadopago"
	"github.com/recuerdame/webapp/internal/pkg/metrics/counter"
)

// mpWebhookEnvelope is the notification body Mercado Pago posts. data.id is
// only a pointer into the provider's API, never authoritative state.
type mpWebhookEnvelope struct {
	ID     json.Number `json:"id"`
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleMercadoPagoChallenge echoes the verification challenge Mercado Pago
// sends when the webhook URL is registered. Without a challenge the route
// doubles as a plain health probe.
func HandleMercadoPagoChallenge(c *fiber.Ctx) error {
	if challenge := c.Query("challenge"); challenge != "" {
		return c.JSON(fiber.Map{"challenge": challenge})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleMercadoPagoWebhook ingests provider notifications. Deliveries are
// recorded first for dedup, then dispatched by type. Permanently
// unprocessable events are acknowledged with 200 so the provider stops
// retrying; transient failures return 5xx to request a retry.
func HandleMercadoPagoWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	var envelope mpWebhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "body is not valid JSON")
	}
	dataID := strings.TrimSpace(envelope.Data.ID)

	secret := env.GetEnv("MP_WEBHOOK_SECRET", "")
	signatureValid := mercadopago.VerifyWebhookSignature(
		c.Get("x-signature"), c.Get("x-request-id"), dataID, secret)
	if strings.TrimSpace(secret) == "" && env.IsDev() {
		// Local development runs without a configured secret.
		signatureValid = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	svc := newBillingService()
	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        billing.ProviderMercadoPago,
		ProviderEventID: firstNonEmpty(envelope.ID.String(), c.Get("x-request-id")),
		EventType:       envelope.Type,
		PayloadJSON:     string(rawBody),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "webhook_persist_failed", "could not record event")
	}
	if !created {
		// Only a delivery that already processed cleanly is a duplicate. A
		// redelivery after a transient failure (we answered 5xx and asked the
		// provider to retry) must be dispatched again, not acknowledged away.
		if stored.ProcessedAt != nil && stored.ProcessingError == "" {
			counter.AddWebhookOutcome(counter.OutcomeDuplicate)
			return c.JSON(fiber.Map{"ok": true, "duplicate": true})
		}
	}
	if !signatureValid {
		counter.AddWebhookOutcome(counter.OutcomeRejected)
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("invalid webhook signature"))
		return jsonError(c, fiber.StatusUnauthorized, "invalid_signature", "signature verification failed")
	}

	var applyErr error
	switch strings.ToLower(strings.TrimSpace(envelope.Type)) {
	case "subscription_preapproval", "subscription_preapproval_plan":
		if dataID == "" {
			applyErr = billing.ErrMalformedUpstreamEvent
		} else {
			applyErr = svc.ApplySubscriptionEvent(ctx, dataID)
		}
	case "payment":
		if dataID == "" {
			applyErr = billing.ErrMalformedUpstreamEvent
		} else {
			applyErr = svc.ApplyPaymentEvent(ctx, dataID)
		}
	default:
		counter.AddWebhookOutcome(counter.OutcomeIgnored)
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.JSON(fiber.Map{"ok": true, "ignored": true})
	}

	_ = svc.MarkWebhookProcessed(ctx, stored.ID, applyErr)

	if applyErr != nil {
		if billing.IsPermanentDrop(applyErr) {
			// Retrying cannot fix these; acknowledge and keep the drop reason
			// in the event log.
			counter.AddWebhookOutcome(counter.OutcomeDropped)
			log.Printf("[Webhook] dropped %s event %s: %v", envelope.Type, dataID, applyErr)
			return c.JSON(fiber.Map{"ok": true, "dropped": true})
		}
		counter.AddWebhookOutcome(counter.OutcomeFailed)
		log.Printf("[Webhook] transient failure on %s event %s: %v", envelope.Type, dataID, applyErr)
		return jsonError(c, fiber.StatusBadGateway, "event_processing_failed", "temporary failure, retry later")
	}

	counter.AddWebhookOutcome(counter.OutcomeProcessed)
	return c.JSON(fiber.Map{"ok": true})
}

func newBillingService() *billing.Service {
	return billing.NewServiceFromDB(
		database.GetDB(),
		billing.NewMercadoPagoProvider(mercadopago.NewClientFromEnv()),
		botnotify.NewNotifierFromEnv(),
	)
}
