package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/internal/pkg/database"
)

func TestHandleMercadoPagoChallenge(t *testing.T) {
	app := fiber.New()
	app.Get("/webhooks/mercadopago", HandleMercadoPagoChallenge)

	req := httptest.NewRequest("GET", "/webhooks/mercadopago?challenge=abc-123", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "abc-123", body["challenge"])
}

func TestHandleMercadoPagoChallengeWithoutParam(t *testing.T) {
	app := fiber.New()
	app.Get("/webhooks/mercadopago", HandleMercadoPagoChallenge)

	resp, err := app.Test(httptest.NewRequest("GET", "/webhooks/mercadopago", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleMercadoPagoWebhookRejectsInvalidJSON(t *testing.T) {
	app := fiber.New()
	app.Post("/webhooks/mercadopago", HandleMercadoPagoWebhook)

	req := httptest.NewRequest("POST", "/webhooks/mercadopago", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// TestHandleMercadoPagoWebhookRetryAfterTransientFailure exercises the retry
// contract end to end: a delivery that failed transiently answered 5xx, so
// its redelivery (same notification id) must be dispatched again — only a
// delivery that already processed cleanly may be acknowledged as a duplicate.
func TestHandleMercadoPagoWebhookRetryAfterTransientFailure(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Plan{}, &models.Subscription{},
		&models.Payment{}, &models.WebhookEvent{},
	))
	prevDB := database.GetDB()
	database.SetDB(db)
	t.Cleanup(func() { database.SetDB(prevDB) })

	user := &models.User{Name: "Ana", Email: "ana@example.com", Password: "-", Role: models.ROLE_USER, Status: models.STATUS_ACTIVE}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Subscription{
		UserID: user.ID, PlanID: 1, Status: models.SubscriptionStatusPastDue,
	}).Error)

	// Stand-in provider API: fails until flipped healthy.
	providerHealthy := false
	mpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !providerHealthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 77,
			"external_reference": user.PublicID,
			"status":             "approved",
			"transaction_amount": 100.0,
			"currency_id":        "ARS",
		})
	}))
	defer mpServer.Close()

	t.Setenv("APP_ENV", "dev") // no MP_WEBHOOK_SECRET: dev bypass
	t.Setenv("MP_API_BASE_URL", mpServer.URL)
	t.Setenv("MP_ACCESS_TOKEN", "test-token")

	app := fiber.New()
	app.Post("/webhooks/mercadopago", HandleMercadoPagoWebhook)

	envelope := `{"id":101,"type":"payment","action":"payment.updated","data":{"id":"77"}}`
	deliver := func() *http.Response {
		req := httptest.NewRequest("POST", "/webhooks/mercadopago", strings.NewReader(envelope))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}
	decode := func(resp *http.Response) map[string]interface{} {
		defer resp.Body.Close()
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	// First delivery: provider down, transient failure, ask for a retry.
	resp := deliver()
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()

	var stored models.WebhookEvent
	require.NoError(t, db.Where("provider_event_id = ?", "101").First(&stored).Error)
	assert.NotEmpty(t, stored.ProcessingError)

	// Redelivery while still failing: must be dispatched again, not
	// acknowledged as a duplicate.
	resp = deliver()
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	body := decode(resp)
	assert.Nil(t, body["duplicate"])

	// Provider recovers: the next redelivery processes the payment.
	providerHealthy = true
	resp = deliver()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decode(resp)
	assert.Equal(t, true, body["ok"])
	assert.Nil(t, body["duplicate"])

	var sub models.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)

	require.NoError(t, db.Where("provider_event_id = ?", "101").First(&stored).Error)
	require.NotNil(t, stored.ProcessedAt)
	assert.Empty(t, stored.ProcessingError)

	// Only now is a redelivery a true duplicate.
	resp = deliver()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decode(resp)
	assert.Equal(t, true, body["duplicate"])

	var paymentCount int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&paymentCount).Error)
	assert.EqualValues(t, 1, paymentCount)
}
