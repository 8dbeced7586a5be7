package repository

import (
	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// providerAccountRepository implements the ProviderAccountRepository interface
type providerAccountRepository struct {
	db *gorm.DB
}

// NewProviderAccountRepository creates a new provider account repository instance
func NewProviderAccountRepository(db *gorm.DB) ProviderAccountRepository {
	return &providerAccountRepository{db: db}
}

// Upsert creates or refreshes the row keyed by (provider, provider user id).
// OAuth callbacks run this on every sign-in, so tokens always end up current.
func (r *providerAccountRepository) Upsert(account *models.ProviderAccount) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "email", "access_token", "refresh_token", "expires_at", "updated_at",
		}),
	}).Create(account).Error
}

// GetByUserAndProvider retrieves a user's connector identity for one provider
func (r *providerAccountRepository) GetByUserAndProvider(userID uint, provider string) (*models.ProviderAccount, error) {
	var account models.ProviderAccount
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUserID retrieves all connector identities linked to a user
func (r *providerAccountRepository) GetByUserID(userID uint) ([]models.ProviderAccount, error) {
	var accounts []models.ProviderAccount
	err := r.db.Where("user_id = ?", userID).Find(&accounts).Error
	return accounts, err
}

// DeleteByUserAndProvider removes a user's connector identity
func (r *providerAccountRepository) DeleteByUserAndProvider(userID uint, provider string) error {
	return r.db.Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&models.ProviderAccount{}).Error
}
