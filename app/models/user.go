package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// User is the authenticated web account. ChatID links it to the WhatsApp bot
// identity; PublicID is the stable reference handed to external collaborators
// (Mercado Pago external_reference, bot notifications).
//
// Users are hard-deleted: the unique ChatID index must free up when an orphan
// bot account is merged away, which a soft-delete marker would prevent.
type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	PublicID         string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	Name             string     `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Email            string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password         string     `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role             string     `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status           string     `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	ChatID           *string    `gorm:"type:varchar(32);uniqueIndex" json:"chat_id,omitempty"`
	Locale           string     `gorm:"type:varchar(10);default:'es'" json:"locale"`
	DigestEnabled    bool       `gorm:"default:true" json:"digest_enabled"`
	BriefEnabled     bool       `gorm:"default:false" json:"brief_enabled"`
	DigestHour       int        `gorm:"default:8" json:"digest_hour" validate:"min=5,max=22"`
	ActivationToken  string     `gorm:"type:varchar(100);index" json:"-"`
	ActivationSentAt *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	LastLoginAt      *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Reminders    []Reminder    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Subscription *Subscription `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// BeforeCreate assigns the external public identifier.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.PublicID == "" {
		u.PublicID = uuid.NewString()
	}
	return nil
}

func CreateUser(name string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		PublicID: uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     ROLE_USER,
		Status:   STATUS_INACTIVE,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

// NewBotUser builds the provisional account the bot creates for an unlinked
// chat identity. It carries no credentials and stays inactive until a web
// account absorbs it through linking.
func NewBotUser(chatID string) *User {
	id := chatID
	return &User{
		PublicID: uuid.NewString(),
		Name:     "WhatsApp " + chatID,
		Email:    chatID + "@bot.recuerdame.app",
		Password: "-",
		Role:     ROLE_USER,
		Status:   STATUS_INACTIVE,
		ChatID:   &id,
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// GenerateActivationToken creates a random token and sets ActivationSentAt
func (u *User) GenerateActivationToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ActivationToken = hex.EncodeToString(b)
	now := time.Now()
	u.ActivationSentAt = &now
	return nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// HasChatLinked reports whether a WhatsApp chat identity is bound.
func (u *User) HasChatLinked() bool {
	return u.ChatID != nil && *u.ChatID != ""
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}
