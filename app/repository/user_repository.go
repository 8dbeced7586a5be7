package repository

import (
	"fmt"
	"strings"

	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByPublicID retrieves a user by their external public identifier
func (r *userRepository) GetByPublicID(publicID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("public_id = ?", publicID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByChatID retrieves the user holding a WhatsApp chat identity
func (r *userRepository) GetByChatID(chatID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("chat_id = ?", chatID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByActivationToken retrieves a user by their activation token
func (r *userRepository) GetByActivationToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("activation_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdatePreferences writes only the notification preference columns.
func (r *userRepository) UpdatePreferences(id uint, prefs UserPreferences) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"locale":         prefs.Locale,
		"digest_enabled": prefs.DigestEnabled,
		"brief_enabled":  prefs.BriefEnabled,
		"digest_hour":    prefs.DigestHour,
	}).Error
}

// Delete hard deletes a user by their ID; owned rows go with it via cascades.
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves a paginated list of users
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// Search searches for users by name or email
func (r *userRepository) Search(query string) ([]models.User, error) {
	var users []models.User
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("name LIKE ? OR email LIKE ?", searchPattern, searchPattern).Find(&users).Error
	return users, err
}

// GetWithStats retrieves users with their reminder counts
func (r *userRepository) GetWithStats(offset, limit int) ([]UserWithStats, error) {
	users, err := r.List(offset, limit)
	if err != nil {
		return nil, err
	}
	return r.withStats(users)
}

// SearchWithStats searches for users with their reminder counts
func (r *userRepository) SearchWithStats(query string) ([]UserWithStats, error) {
	users, err := r.Search(query)
	if err != nil {
		return nil, err
	}
	return r.withStats(users)
}

func (r *userRepository) withStats(users []models.User) ([]UserWithStats, error) {
	var usersWithStats []UserWithStats
	for _, user := range users {
		var reminders int64
		err := r.db.Model(&models.Reminder{}).Where("user_id = ?", user.ID).Count(&reminders).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count reminders for user %d: %w", user.ID, err)
		}
		usersWithStats = append(usersWithStats, UserWithStats{
			User:          user,
			ReminderCount: reminders,
		})
	}
	return usersWithStats, nil
}
