package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/recuerdame/webapp/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.mercadopago.com"

// Client talks to the Mercado Pago REST API. Webhook payloads are never
// trusted; handlers re-fetch preapprovals and payments through this client.
type Client struct {
	AccessToken string
	APIBaseURL  string

	HTTPClient *http.Client
}

// Preapproval is the subset of the provider subscription resource the
// projector consumes.
type Preapproval struct {
	ID                string `json:"id"`
	ExternalReference string `json:"external_reference"`
	PreapprovalPlanID string `json:"preapproval_plan_id"`
	PayerID           int64  `json:"payer_id"`
	Status            string `json:"status"`
	NextPaymentDate   string `json:"next_payment_date"`
	InitPoint         string `json:"init_point"`
	AutoRecurring     struct {
		Frequency     int    `json:"frequency"`
		FrequencyType string `json:"frequency_type"`
	} `json:"auto_recurring"`
}

// PaymentResource is the subset of the provider payment resource the
// projector consumes. TransactionAmount is in major currency units.
type PaymentResource struct {
	ID                int64   `json:"id"`
	ExternalReference string  `json:"external_reference"`
	Status            string  `json:"status"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
	DateApproved      string  `json:"date_approved"`
}

// CheckoutParams describes a subscription checkout to create.
type CheckoutParams struct {
	PreapprovalPlanID string
	PayerEmail        string
	ExternalReference string
	BackURL           string
}

func NewClientFromEnv() *Client {
	return &Client{
		AccessToken: strings.TrimSpace(env.GetEnv("MP_ACCESS_TOKEN", "")),
		APIBaseURL:  strings.TrimSpace(env.GetEnv("MP_API_BASE_URL", defaultAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetPreapproval fetches the authoritative subscription state for id.
func (c *Client) GetPreapproval(ctx context.Context, id string) (*Preapproval, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("preapproval id is required")
	}
	var out Preapproval
	if err := c.doJSON(ctx, http.MethodGet, "/preapproval/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPayment fetches the authoritative payment state for id.
func (c *Client) GetPayment(ctx context.Context, id string) (*PaymentResource, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("payment id is required")
	}
	var out PaymentResource
	if err := c.doJSON(ctx, http.MethodGet, "/v1/payments/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePreapproval starts a subscription checkout and returns the created
// preapproval including its init point (the redirect URL for the payer).
func (c *Client) CreatePreapproval(ctx context.Context, p CheckoutParams) (*Preapproval, error) {
	if p.PreapprovalPlanID == "" || p.PayerEmail == "" || p.ExternalReference == "" {
		return nil, errors.New("preapproval_plan_id, payer_email and external_reference are required")
	}
	body := map[string]string{
		"preapproval_plan_id": p.PreapprovalPlanID,
		"payer_email":         p.PayerEmail,
		"external_reference":  p.ExternalReference,
		"back_url":            p.BackURL,
		"status":              "authorized",
	}
	var out Preapproval
	if err := c.doJSON(ctx, http.MethodPost, "/preapproval", body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.InitPoint) == "" {
		return nil, errors.New("mercadopago preapproval returned no init_point")
	}
	return &out, nil
}

// CancelPreapproval transitions the provider subscription to cancelled.
func (c *Client) CancelPreapproval(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("preapproval id is required")
	}
	body := map[string]string{"status": "cancelled"}
	return c.doJSON(ctx, http.MethodPut, "/preapproval/"+id, body, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return errors.New("MP_ACCESS_TOKEN is not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	url := strings.TrimRight(c.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mercadopago %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// ParseDate parses the provider's RFC3339-ish timestamps. Returns nil on
// empty or unparseable input so callers can fall back to defaults.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
