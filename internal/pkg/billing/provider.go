package billing

import (
	"context"
	"strconv"

	"github.com/recuerdame/webapp/internal/pkg/mercadopago"
)

// mpProvider adapts the Mercado Pago API client to the Provider interface.
type mpProvider struct {
	client *mercadopago.Client
}

// NewMercadoPagoProvider wraps the API client as a billing Provider.
func NewMercadoPagoProvider(client *mercadopago.Client) Provider {
	return &mpProvider{client: client}
}

func (p *mpProvider) FetchSubscription(ctx context.Context, id string) (*ExternalSubscription, error) {
	pre, err := p.client.GetPreapproval(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ExternalSubscription{
		ID:              pre.ID,
		UserRef:         pre.ExternalReference,
		PlanRef:         pre.PreapprovalPlanID,
		PayerID:         strconv.FormatInt(pre.PayerID, 10),
		Status:          pre.Status,
		FrequencyMonths: preapprovalFrequencyMonths(pre),
		NextPaymentDate: mercadopago.ParseDate(pre.NextPaymentDate),
	}, nil
}

func (p *mpProvider) FetchPayment(ctx context.Context, id string) (*ExternalPayment, error) {
	pay, err := p.client.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ExternalPayment{
		ID:       strconv.FormatInt(pay.ID, 10),
		UserRef:  pay.ExternalReference,
		Status:   pay.Status,
		Amount:   pay.TransactionAmount,
		Currency: pay.CurrencyID,
	}, nil
}

// preapprovalFrequencyMonths normalizes the recurrence to months. The provider
// reports frequency_type "months" for both monthly (1) and yearly (12) plans.
func preapprovalFrequencyMonths(pre *mercadopago.Preapproval) int {
	if pre.AutoRecurring.Frequency <= 0 {
		return 1
	}
	return pre.AutoRecurring.Frequency
}
