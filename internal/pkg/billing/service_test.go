package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
)

type fakeRepo struct {
	plans         map[string]*models.Plan
	users         map[string]*models.User
	subsByMpID    map[string]*models.Subscription
	subsByUserID  map[uint]*models.Subscription
	payments      map[string]*models.Payment
	webhookEvents map[string]*models.WebhookEvent
	nextID        uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:         map[string]*models.Plan{},
		users:         map[string]*models.User{},
		subsByMpID:    map[string]*models.Subscription{},
		subsByUserID:  map[uint]*models.Subscription{},
		payments:      map[string]*models.Payment{},
		webhookEvents: map[string]*models.WebhookEvent{},
	}
}

func (r *fakeRepo) addPlan(id uint, monthly, yearly string) *models.Plan {
	p := &models.Plan{ID: id, Code: "starter"}
	if monthly != "" {
		p.MpPlanIDMonthly = &monthly
		r.plans[monthly] = p
	}
	if yearly != "" {
		p.MpPlanIDYearly = &yearly
		r.plans[yearly] = p
	}
	return p
}

func (r *fakeRepo) addUser(id uint, publicID string) *models.User {
	u := &models.User{ID: id, PublicID: publicID}
	r.users[publicID] = u
	return u
}

func (r *fakeRepo) FindPlanByMpPlanID(mpPlanID string) (*models.Plan, error) {
	if p, ok := r.plans[mpPlanID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindUserByPublicID(publicID string) (*models.User, error) {
	if u, ok := r.users[publicID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindSubscriptionByMpID(mpSubscriptionID string) (*models.Subscription, error) {
	if s, ok := r.subsByMpID[mpSubscriptionID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindSubscriptionByUserID(userID uint) (*models.Subscription, error) {
	if s, ok := r.subsByUserID[userID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CreateSubscription(sub *models.Subscription) error {
	r.nextID++
	sub.ID = r.nextID
	stored := *sub
	if sub.MpSubscriptionID != nil {
		r.subsByMpID[*sub.MpSubscriptionID] = &stored
	}
	r.subsByUserID[sub.UserID] = &stored
	return nil
}

func (r *fakeRepo) UpdateSubscription(id uint, status string, currentPeriodEnd *time.Time) error {
	for _, s := range r.subsByMpID {
		if s.ID == id {
			s.Status = status
			if currentPeriodEnd != nil {
				s.CurrentPeriodEnd = currentPeriodEnd
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepo) SetSubscriptionStatus(id uint, status string) error {
	for _, s := range r.subsByUserID {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// UpsertPayment mirrors the SQL upsert: keyed by mp_payment_id, paid_at only
// assigned when the incoming row carries one.
func (r *fakeRepo) UpsertPayment(p *models.Payment) error {
	if existing, ok := r.payments[p.MpPaymentID]; ok {
		existing.Status = p.Status
		existing.MpStatus = p.MpStatus
		existing.Amount = p.Amount
		existing.Currency = p.Currency
		if p.PaidAt != nil {
			existing.PaidAt = p.PaidAt
		}
		*p = *existing
		return nil
	}
	r.nextID++
	p.ID = r.nextID
	stored := *p
	r.payments[p.MpPaymentID] = &stored
	return nil
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := r.webhookEvents[key]; ok {
		return false, stored, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.webhookEvents[key] = event
	return true, event, nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	for _, e := range r.webhookEvents {
		if e.ID == id {
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeProvider struct {
	subs     map[string]*ExternalSubscription
	payments map[string]*ExternalPayment
	err      error
}

func (p *fakeProvider) FetchSubscription(_ context.Context, id string) (*ExternalSubscription, error) {
	if p.err != nil {
		return nil, p.err
	}
	if s, ok := p.subs[id]; ok {
		return s, nil
	}
	return nil, errors.New("preapproval not found upstream")
}

func (p *fakeProvider) FetchPayment(_ context.Context, id string) (*ExternalPayment, error) {
	if p.err != nil {
		return nil, p.err
	}
	if pay, ok := p.payments[id]; ok {
		return pay, nil
	}
	return nil, errors.New("payment not found upstream")
}

type fakeNotifier struct {
	activated []string
}

func (n *fakeNotifier) NotifySubscriptionActivated(_ context.Context, userPublicID string) {
	n.activated = append(n.activated, userPublicID)
}

func newTestService() (*Service, *fakeRepo, *fakeProvider, *fakeNotifier) {
	repo := newFakeRepo()
	provider := &fakeProvider{
		subs:     map[string]*ExternalSubscription{},
		payments: map[string]*ExternalPayment{},
	}
	notifier := &fakeNotifier{}
	return NewService(repo, provider, notifier), repo, provider, notifier
}

func TestApplySubscriptionEventCreatesAndNotifies(t *testing.T) {
	svc, repo, provider, notifier := newTestService()
	repo.addPlan(1, "mp-plan-m", "mp-plan-y")
	repo.addUser(7, "user-pub-7")

	next := time.Now().Add(45 * 24 * time.Hour)
	provider.subs["PRE-1"] = &ExternalSubscription{
		ID: "PRE-1", UserRef: "user-pub-7", PlanRef: "mp-plan-y",
		Status: "authorized", FrequencyMonths: 12, NextPaymentDate: &next,
	}

	if err := svc.ApplySubscriptionEvent(context.Background(), "PRE-1"); err != nil {
		t.Fatalf("ApplySubscriptionEvent: %v", err)
	}

	sub := repo.subsByMpID["PRE-1"]
	if sub == nil {
		t.Fatal("subscription row was not created")
	}
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("status = %q, want ACTIVE", sub.Status)
	}
	if sub.BillingCycle != models.BillingCycleYearly {
		t.Fatalf("cycle = %q, want YEARLY", sub.BillingCycle)
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(next) {
		t.Fatal("period end should come from the provider's next charge date")
	}
	if len(notifier.activated) != 1 || notifier.activated[0] != "user-pub-7" {
		t.Fatalf("activation notifications = %v, want one for user-pub-7", notifier.activated)
	}
}

func TestApplySubscriptionEventDefaultPeriodEnd(t *testing.T) {
	svc, repo, provider, _ := newTestService()
	repo.addPlan(1, "mp-plan-m", "")
	repo.addUser(7, "user-pub-7")
	provider.subs["PRE-2"] = &ExternalSubscription{
		ID: "PRE-2", UserRef: "user-pub-7", PlanRef: "mp-plan-m",
		Status: "pending", FrequencyMonths: 1,
	}

	if err := svc.ApplySubscriptionEvent(context.Background(), "PRE-2"); err != nil {
		t.Fatalf("ApplySubscriptionEvent: %v", err)
	}

	sub := repo.subsByMpID["PRE-2"]
	if sub.Status != models.SubscriptionStatusTrialing {
		t.Fatalf("status = %q, want TRIALING", sub.Status)
	}
	if sub.CurrentPeriodEnd == nil {
		t.Fatal("period end should default when provider omits next charge date")
	}
	want := time.Now().Add(30 * 24 * time.Hour)
	if diff := sub.CurrentPeriodEnd.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("default period end %v not ~30 days ahead", sub.CurrentPeriodEnd)
	}
}

func TestApplySubscriptionEventUpdateDoesNotNotify(t *testing.T) {
	svc, repo, provider, notifier := newTestService()
	repo.addPlan(1, "mp-plan-m", "")
	repo.addUser(7, "user-pub-7")
	provider.subs["PRE-3"] = &ExternalSubscription{
		ID: "PRE-3", UserRef: "user-pub-7", PlanRef: "mp-plan-m",
		Status: "paused", FrequencyMonths: 1,
	}

	if err := svc.ApplySubscriptionEvent(context.Background(), "PRE-3"); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if len(notifier.activated) != 0 {
		t.Fatal("PAUSED create must not notify")
	}

	// Same event redelivered with a status flip into ACTIVE: update path,
	// still no notification (payment path owns that transition).
	provider.subs["PRE-3"].Status = "authorized"
	if err := svc.ApplySubscriptionEvent(context.Background(), "PRE-3"); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	sub := repo.subsByMpID["PRE-3"]
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("status = %q, want ACTIVE after update", sub.Status)
	}
	if len(notifier.activated) != 0 {
		t.Fatal("update into ACTIVE must not notify")
	}
}

func TestApplySubscriptionEventDrops(t *testing.T) {
	svc, repo, provider, _ := newTestService()
	repo.addPlan(1, "mp-plan-m", "")
	repo.addUser(7, "user-pub-7")

	provider.subs["no-user"] = &ExternalSubscription{ID: "no-user", PlanRef: "mp-plan-m", Status: "authorized"}
	provider.subs["no-plan"] = &ExternalSubscription{ID: "no-plan", UserRef: "user-pub-7", PlanRef: "ghost", Status: "authorized"}
	provider.subs["ghost-user"] = &ExternalSubscription{ID: "ghost-user", UserRef: "nobody", PlanRef: "mp-plan-m", Status: "authorized"}

	cases := []struct {
		id   string
		want error
	}{
		{"no-user", ErrMalformedUpstreamEvent},
		{"no-plan", ErrUnknownPlan},
		{"ghost-user", ErrUnknownUser},
	}
	for _, c := range cases {
		err := svc.ApplySubscriptionEvent(context.Background(), c.id)
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: err = %v, want %v", c.id, err, c.want)
		}
		if !IsPermanentDrop(err) {
			t.Fatalf("%s: expected a permanent drop", c.id)
		}
	}
}

func TestApplySubscriptionEventTransientFetchError(t *testing.T) {
	svc, _, provider, _ := newTestService()
	provider.err = errors.New("upstream 500")

	err := svc.ApplySubscriptionEvent(context.Background(), "PRE-X")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsPermanentDrop(err) {
		t.Fatal("provider fetch failures must stay retryable")
	}
}

func TestApplyPaymentEventApprovedActivatesAndNotifiesOnce(t *testing.T) {
	svc, repo, provider, notifier := newTestService()
	repo.addUser(7, "user-pub-7")
	repo.subsByUserID[7] = &models.Subscription{ID: 10, UserID: 7, Status: models.SubscriptionStatusPastDue}
	provider.payments["PAY-1"] = &ExternalPayment{
		ID: "PAY-1", UserRef: "user-pub-7", Status: "approved", Amount: 1999.995, Currency: "ARS",
	}

	if err := svc.ApplyPaymentEvent(context.Background(), "PAY-1"); err != nil {
		t.Fatalf("ApplyPaymentEvent: %v", err)
	}

	p := repo.payments["PAY-1"]
	if p == nil {
		t.Fatal("payment row was not created")
	}
	if p.Amount != 200000 {
		t.Fatalf("amount = %d, want 200000 minor units (rounded)", p.Amount)
	}
	if p.Status != models.PaymentStatusApproved || p.PaidAt == nil {
		t.Fatalf("approved payment must carry status APPROVED and paid_at, got %q %v", p.Status, p.PaidAt)
	}
	if repo.subsByUserID[7].Status != models.SubscriptionStatusActive {
		t.Fatal("approved payment must force the subscription ACTIVE")
	}
	if len(notifier.activated) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.activated))
	}

	// Duplicate delivery: subscription already ACTIVE, no second notification.
	if err := svc.ApplyPaymentEvent(context.Background(), "PAY-1"); err != nil {
		t.Fatalf("duplicate ApplyPaymentEvent: %v", err)
	}
	if len(notifier.activated) != 1 {
		t.Fatalf("duplicate delivery notified again: %d", len(notifier.activated))
	}
}

func TestApplyPaymentEventPaidAtDoesNotRegress(t *testing.T) {
	svc, repo, provider, _ := newTestService()
	repo.addUser(7, "user-pub-7")
	repo.subsByUserID[7] = &models.Subscription{ID: 10, UserID: 7, Status: models.SubscriptionStatusTrialing}
	provider.payments["PAY-2"] = &ExternalPayment{
		ID: "PAY-2", UserRef: "user-pub-7", Status: "approved", Amount: 10, Currency: "ARS",
	}

	if err := svc.ApplyPaymentEvent(context.Background(), "PAY-2"); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	firstPaidAt := repo.payments["PAY-2"].PaidAt
	if firstPaidAt == nil {
		t.Fatal("paid_at must be set on approval")
	}

	// Out-of-order redelivery reporting refunded must not erase paid_at.
	provider.payments["PAY-2"].Status = "refunded"
	if err := svc.ApplyPaymentEvent(context.Background(), "PAY-2"); err != nil {
		t.Fatalf("refund apply: %v", err)
	}
	p := repo.payments["PAY-2"]
	if p.Status != models.PaymentStatusRefunded {
		t.Fatalf("status = %q, want REFUNDED", p.Status)
	}
	if p.PaidAt == nil || !p.PaidAt.Equal(*firstPaidAt) {
		t.Fatal("paid_at regressed on a non-approved redelivery")
	}
}

func TestApplyPaymentEventDrops(t *testing.T) {
	svc, repo, provider, _ := newTestService()
	repo.addUser(7, "user-pub-7") // user exists but has no subscription

	provider.payments["no-ref"] = &ExternalPayment{ID: "no-ref", Status: "approved", Amount: 10}
	provider.payments["ghost-user"] = &ExternalPayment{ID: "ghost-user", UserRef: "nobody", Status: "approved", Amount: 10}
	provider.payments["no-sub"] = &ExternalPayment{ID: "no-sub", UserRef: "user-pub-7", Status: "approved", Amount: 10}

	cases := []struct {
		id   string
		want error
	}{
		{"no-ref", ErrMalformedUpstreamEvent},
		{"ghost-user", ErrOrphanPayment},
		{"no-sub", ErrOrphanPayment},
	}
	for _, c := range cases {
		err := svc.ApplyPaymentEvent(context.Background(), c.id)
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: err = %v, want %v", c.id, err, c.want)
		}
	}
}

func TestApplyPaymentEventNonApprovedDoesNotActivate(t *testing.T) {
	svc, repo, provider, notifier := newTestService()
	repo.addUser(7, "user-pub-7")
	repo.subsByUserID[7] = &models.Subscription{ID: 10, UserID: 7, Status: models.SubscriptionStatusPastDue}
	provider.payments["PAY-3"] = &ExternalPayment{
		ID: "PAY-3", UserRef: "user-pub-7", Status: "rejected", Amount: 10,
	}

	if err := svc.ApplyPaymentEvent(context.Background(), "PAY-3"); err != nil {
		t.Fatalf("ApplyPaymentEvent: %v", err)
	}
	if repo.subsByUserID[7].Status != models.SubscriptionStatusPastDue {
		t.Fatal("rejected payment must not change subscription status")
	}
	p := repo.payments["PAY-3"]
	if p.Status != models.PaymentStatusRejected || p.PaidAt != nil {
		t.Fatalf("rejected payment stored as %q paid_at=%v", p.Status, p.PaidAt)
	}
	if len(notifier.activated) != 0 {
		t.Fatal("rejected payment must not notify")
	}
}

func TestRecordWebhookEventDedupAndHashFallback(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	created, stored, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider: "MercadoPago", ProviderEventID: "evt-1", EventType: "payment", PayloadJSON: "{}",
	})
	if err != nil || !created || stored == nil {
		t.Fatalf("first record: created=%v stored=%v err=%v", created, stored, err)
	}
	if stored.Provider != "mercadopago" {
		t.Fatalf("provider not normalized: %q", stored.Provider)
	}

	created, _, err = svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider: "mercadopago", ProviderEventID: "evt-1", EventType: "payment", PayloadJSON: "{}",
	})
	if err != nil || created {
		t.Fatalf("duplicate should not create: created=%v err=%v", created, err)
	}

	// No event id: the payload hash stands in, so identical bodies dedup too.
	created, first, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider: "mercadopago", EventType: "payment", PayloadJSON: `{"data":{"id":"9"}}`,
	})
	if err != nil || !created {
		t.Fatalf("hash-keyed record: created=%v err=%v", created, err)
	}
	created, second, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider: "mercadopago", EventType: "payment", PayloadJSON: `{"data":{"id":"9"}}`,
	})
	if err != nil || created || second.ID != first.ID {
		t.Fatalf("identical payload should dedup: created=%v err=%v", created, err)
	}
}
