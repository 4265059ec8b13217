package db_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionIgnored  SuggestionStatus = "ignored"
)

type PendingSubscriptionSuggestion struct {
	BaseModel
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_suggestion_source,priority:1"`
	SourceMessageID string    `gorm:"not null;uniqueIndex:idx_suggestion_source,priority:2"`
	SenderAddress   string    `gorm:"not null;index"`
	Subject         string

	Service      string          `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Currency     string          `gorm:"size:3;not null"`
	BillingCycle BillingCycle    `gorm:"type:varchar(16);not null"`
	Kind         ChargeKind      `gorm:"type:varchar(24);not null"`
	ChargedAt    time.Time       `gorm:"not null"`

	// PaymentFailed carries the classifier's past-due signal to accept.
	PaymentFailed bool `gorm:"not null;default:false"`

	Status    SuggestionStatus `gorm:"type:varchar(16);not null;index"`
	DecidedAt *time.Time
}

// IgnoredSender suppresses future suggestions from one sender for one user.
type IgnoredSender struct {
	BaseModel
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ignored_sender,priority:1"`
	SenderAddress string    `gorm:"not null;uniqueIndex:idx_ignored_sender,priority:2"`
}
