package db_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Charge is one ledger-visible financial event. (UserID, SourceMessageID) is
// unique, so re-ingesting the same upstream message never adds a row.
type Charge struct {
	BaseModel
	UserID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_charge_source,priority:1"`
	SourceMessageID string          `gorm:"not null;uniqueIndex:idx_charge_source,priority:2"`
	SubscriptionID  *uuid.UUID      `gorm:"type:uuid;index"`
	Service         string          `gorm:"not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Currency        string          `gorm:"size:3;not null"`
	BillingCycle    BillingCycle    `gorm:"type:varchar(16);not null"`
	Kind            ChargeKind      `gorm:"type:varchar(24);not null"`
	ChargedAt       time.Time       `gorm:"not null;index"`
}
