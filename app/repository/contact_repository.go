package repository

import (
	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
)

// contactRepository implements the ContactRepository interface
type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository instance
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

// Create creates a new contact in the database
func (r *contactRepository) Create(contact *models.Contact) error {
	return r.db.Create(contact).Error
}

// GetByID retrieves a contact by its ID
func (r *contactRepository) GetByID(id uint) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.First(&contact, id).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetByChatID retrieves all contacts in a chat identity's address book
func (r *contactRepository) GetByChatID(chatID string) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.Where("chat_id = ?", chatID).Order("name ASC").Find(&contacts).Error
	return contacts, err
}

// GetByChatIDAndName retrieves a contact by its unique (chat_id, name) key
func (r *contactRepository) GetByChatIDAndName(chatID, name string) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.Where("chat_id = ? AND name = ?", chatID, name).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Update updates an existing contact in the database
func (r *contactRepository) Update(contact *models.Contact) error {
	return r.db.Save(contact).Error
}

// Delete deletes a contact by its ID
func (r *contactRepository) Delete(id uint) error {
	return r.db.Delete(&models.Contact{}, id).Error
}
