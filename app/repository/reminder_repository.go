package repository

import (
	"time"

	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
)

// reminderRepository implements the ReminderRepository interface
type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new reminder repository instance
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

// Create creates a new reminder in the database
func (r *reminderRepository) Create(reminder *models.Reminder) error {
	return r.db.Create(reminder).Error
}

// GetByID retrieves a reminder by its ID
func (r *reminderRepository) GetByID(id uint) (*models.Reminder, error) {
	var reminder models.Reminder
	err := r.db.First(&reminder, id).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

// GetByIDForUser retrieves a reminder scoped to its owner. Lookups from
// request handlers always go through here so users cannot touch each other's
// rows.
func (r *reminderRepository) GetByIDForUser(id, userID uint) (*models.Reminder, error) {
	var reminder models.Reminder
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&reminder).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

// GetByUserID retrieves a paginated list of a user's reminders
func (r *reminderRepository) GetByUserID(userID uint, offset, limit int) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.Where("user_id = ?", userID).
		Order("scheduled_at ASC").Offset(offset).Limit(limit).
		Find(&reminders).Error
	return reminders, err
}

// GetByUserIDAndRange retrieves a user's reminders scheduled within [from, to)
func (r *reminderRepository) GetByUserIDAndRange(userID uint, from, to time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.Where("user_id = ? AND scheduled_at >= ? AND scheduled_at < ?", userID, from, to).
		Order("scheduled_at ASC").
		Find(&reminders).Error
	return reminders, err
}

// Update updates an existing reminder in the database
func (r *reminderRepository) Update(reminder *models.Reminder) error {
	return r.db.Save(reminder).Error
}

// Delete deletes a reminder by its ID
func (r *reminderRepository) Delete(id uint) error {
	return r.db.Delete(&models.Reminder{}, id).Error
}

// CountByUserID returns the number of reminders owned by a user
func (r *reminderRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Reminder{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Count returns the total number of reminders
func (r *reminderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Reminder{}).Count(&count).Error
	return count, err
}
