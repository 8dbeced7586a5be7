package billing

import (
	"time"

	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	FindPlanByMpPlanID(mpPlanID string) (*models.Plan, error)
	FindUserByPublicID(publicID string) (*models.User, error)
	FindSubscriptionByMpID(mpSubscriptionID string) (*models.Subscription, error)
	FindSubscriptionByUserID(userID uint) (*models.Subscription, error)
	CreateSubscription(sub *models.Subscription) error
	UpdateSubscription(id uint, status string, currentPeriodEnd *time.Time) error
	SetSubscriptionStatus(id uint, status string) error
	UpsertPayment(p *models.Payment) error
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindPlanByMpPlanID(mpPlanID string) (*models.Plan, error) {
	var p models.Plan
	err := r.db.
		Where("mp_plan_id_monthly = ? OR mp_plan_id_yearly = ?", mpPlanID, mpPlanID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) FindUserByPublicID(publicID string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("public_id = ?", publicID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) FindSubscriptionByMpID(mpSubscriptionID string) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.db.Where("mp_subscription_id = ?", mpSubscriptionID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *gormRepository) FindSubscriptionByUserID(userID uint) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.db.Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// UpdateSubscription overwrites only status and, when provided, the period
// end. Identity fields set at creation time are never re-derived here.
func (r *gormRepository) UpdateSubscription(id uint, status string, currentPeriodEnd *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if currentPeriodEnd != nil {
		updates["current_period_end"] = currentPeriodEnd
	}
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) SetSubscriptionStatus(id uint, status string) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).
		Update("status", status).Error
}

// UpsertPayment creates or updates the row keyed by mp_payment_id. paid_at is
// only assigned when the incoming row carries one, so a later non-approved
// redelivery never erases a recorded approval timestamp.
func (r *gormRepository) UpsertPayment(p *models.Payment) error {
	assign := []string{"status", "mp_status", "amount", "currency", "updated_at"}
	if p.PaidAt != nil {
		assign = append(assign, "paid_at")
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mp_payment_id"}},
		DoUpdates: clause.AssignmentColumns(assign),
	}).Create(p).Error; err != nil {
		return err
	}

	// Ensure ID and final column state are populated after upsert.
	return r.db.Where("mp_payment_id = ?", p.MpPaymentID).First(p).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
