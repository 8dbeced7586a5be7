package repository

import (
	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
)

// processedEmailRepository implements the ProcessedEmailRepository interface
type processedEmailRepository struct {
	db *gorm.DB
}

// NewProcessedEmailRepository creates a new processed email repository instance
func NewProcessedEmailRepository(db *gorm.DB) ProcessedEmailRepository {
	return &processedEmailRepository{db: db}
}

// ListByUser returns one user's processed emails newest first, optionally
// filtered by subject or sender, together with the filtered total.
func (r *processedEmailRepository) ListByUser(userID uint, search string, offset, limit int) ([]models.ProcessedEmail, int64, error) {
	query := r.db.Model(&models.ProcessedEmail{}).Where("user_id = ?", userID)

	if search != "" {
		like := "%" + search + "%"
		query = query.Where("subject LIKE ? OR sender LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var emails []models.ProcessedEmail
	err := query.Order("received_at DESC").Offset(offset).Limit(limit).Find(&emails).Error
	return emails, total, err
}
