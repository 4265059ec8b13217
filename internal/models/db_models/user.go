package db_models

import "time"

type User struct {
	BaseModel
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	Plan         Plan   `gorm:"type:varchar(16);not null;default:'free'"`

	// Linked mail account tokens, written by the mail-provider integration.
	MailAccessToken  *string `json:"-"`
	MailRefreshToken *string `json:"-"`

	StripeCustomerID *string `gorm:"uniqueIndex" json:"-"`
	LastScanAt       *time.Time
}
