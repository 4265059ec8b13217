package db_models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubStatusActive  SubscriptionStatus = "active"
	SubStatusPastDue SubscriptionStatus = "past_due"
	SubStatusOnHold  SubscriptionStatus = "on_hold"
	SubStatusExpired SubscriptionStatus = "expired"
)

func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	switch st := SubscriptionStatus(s); st {
	case SubStatusActive, SubStatusPastDue, SubStatusOnHold, SubStatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("subscription status %q: %w", s, ErrUnknownValue)
}

func (s *SubscriptionStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseSubscriptionStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Subscription aggregates every Charge sharing (UserID, Service, Currency).
// TotalCharges and TotalAmount always mirror the linked charges; Version
// guards concurrent folds.
type Subscription struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_key,priority:1"`
	Service  string    `gorm:"not null;uniqueIndex:idx_subscription_key,priority:2"`
	Currency string    `gorm:"size:3;not null;uniqueIndex:idx_subscription_key,priority:3"`

	Category              string
	BillingCycle          BillingCycle       `gorm:"type:varchar(16);not null"`
	Status                SubscriptionStatus `gorm:"type:varchar(16);not null;index"`
	MonthlyAmount         decimal.Decimal    `gorm:"type:decimal(20,6);not null"`
	EstimatedMonthlySpend decimal.Decimal    `gorm:"type:decimal(20,6);not null"`
	LastAmount            decimal.Decimal    `gorm:"type:decimal(20,6);not null"`

	FirstChargeAt time.Time  `gorm:"not null"`
	LastChargeAt  time.Time  `gorm:"not null"`
	NextRenewal   *time.Time `gorm:"index"`

	TotalCharges int64           `gorm:"not null"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,6);not null"`

	DeletedAt *time.Time `gorm:"index"`
	Version   int64      `gorm:"not null;default:0"`
}

func (s *Subscription) IsDeleted() bool {
	return s.DeletedAt != nil
}
