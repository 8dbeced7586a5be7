package repository

import (
	"time"

	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByPublicID(publicID string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByChatID(chatID string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	UpdatePreferences(id uint, prefs UserPreferences) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetWithStats(offset, limit int) ([]UserWithStats, error)
	SearchWithStats(query string) ([]UserWithStats, error)
}

// ReminderRepository defines the interface for reminder-related database operations
type ReminderRepository interface {
	Create(reminder *models.Reminder) error
	GetByID(id uint) (*models.Reminder, error)
	GetByIDForUser(id, userID uint) (*models.Reminder, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Reminder, error)
	GetByUserIDAndRange(userID uint, from, to time.Time) ([]models.Reminder, error)
	Update(reminder *models.Reminder) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	Count() (int64, error)
}

// ContactRepository defines the interface for the bot address book
type ContactRepository interface {
	Create(contact *models.Contact) error
	GetByID(id uint) (*models.Contact, error)
	GetByChatID(chatID string) ([]models.Contact, error)
	GetByChatIDAndName(chatID, name string) (*models.Contact, error)
	Update(contact *models.Contact) error
	Delete(id uint) error
}

// PlanRepository defines the interface for billing plan operations
type PlanRepository interface {
	Create(plan *models.Plan) error
	GetByID(id uint) (*models.Plan, error)
	GetByCode(code string) (*models.Plan, error)
	GetActive() ([]models.Plan, error)
	GetAll() ([]models.Plan, error)
	Update(plan *models.Plan) error
	Delete(id uint) error
}

// SubscriptionRepository defines the interface for subscription operations
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByUserID(userID uint) (*models.Subscription, error)
	GetByUserIDWithPlan(userID uint) (*models.Subscription, error)
	Update(sub *models.Subscription) error
	Cancel(id uint, cancelledAt time.Time) error
	CountByStatus(status string) (int64, error)
}

// CommitRepository defines the interface for the read-only deploy log
type CommitRepository interface {
	List(filter CommitFilter, offset, limit int) ([]models.Commit, int64, error)
	FilterOptions() (repositories []string, branches []string, err error)
}

// ProcessedEmailRepository defines the interface for the read-only Gmail
// ingestion log written by the bot service
type ProcessedEmailRepository interface {
	ListByUser(userID uint, search string, offset, limit int) ([]models.ProcessedEmail, int64, error)
}

// ProviderAccountRepository defines the interface for OAuth connector identities
type ProviderAccountRepository interface {
	Upsert(account *models.ProviderAccount) error
	GetByUserAndProvider(userID uint, provider string) (*models.ProviderAccount, error)
	GetByUserID(userID uint) ([]models.ProviderAccount, error)
	DeleteByUserAndProvider(userID uint, provider string) error
}

// UserPreferences carries the mutable notification settings.
type UserPreferences struct {
	Locale        string
	DigestEnabled bool
	BriefEnabled  bool
	DigestHour    int
}

// UserWithStats represents a user with their reminder count for admin listings
type UserWithStats struct {
	User          models.User
	ReminderCount int64
}

// CommitFilter narrows the deploy-log listing.
type CommitFilter struct {
	Query      string
	Repository string
	Branch     string
}

// Repositories struct holds all repository instances
type Repositories struct {
	User            UserRepository
	Reminder        ReminderRepository
	Contact         ContactRepository
	Plan            PlanRepository
	Subscription    SubscriptionRepository
	ProviderAccount ProviderAccountRepository
	Commit          CommitRepository
	ProcessedEmail  ProcessedEmailRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		Reminder:        NewReminderRepository(db),
		Contact:         NewContactRepository(db),
		Plan:            NewPlanRepository(db),
		Subscription:    NewSubscriptionRepository(db),
		ProviderAccount: NewProviderAccountRepository(db),
		Commit:          NewCommitRepository(db),
		ProcessedEmail:  NewProcessedEmailRepository(db),
	}
}
