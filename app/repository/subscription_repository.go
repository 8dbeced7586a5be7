package repository

import (
	"time"

	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create creates a new subscription in the database
func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// GetByUserID retrieves the subscription owned by a user
func (r *subscriptionRepository) GetByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByUserIDWithPlan retrieves the subscription with its plan preloaded
func (r *subscriptionRepository) GetByUserIDWithPlan(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Update updates an existing subscription in the database
func (r *subscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// Cancel marks a subscription cancelled. One-way: re-subscription goes
// through a fresh checkout, the row is never un-cancelled in place.
func (r *subscriptionRepository) Cancel(id uint, cancelledAt time.Time) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       models.SubscriptionStatusCancelled,
		"cancelled_at": &cancelledAt,
	}).Error
}

// CountByStatus returns the number of subscriptions in a given status
func (r *subscriptionRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
