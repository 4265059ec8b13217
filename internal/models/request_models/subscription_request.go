package request_models

import (
	"time"

	"github.com/shopspring/decimal"

	dbm "subtrack/internal/models/db_models"
)

type CreateSubscriptionRequest struct {
	Service      string           `json:"service" binding:"required,max=120"`
	Currency     string           `json:"currency" binding:"required,len=3"`
	Amount       decimal.Decimal  `json:"amount"`
	BillingCycle dbm.BillingCycle `json:"billing_cycle"`
	ChargedAt    time.Time        `json:"charged_at" binding:"required"`
	Category     string           `json:"category" binding:"max=60"`
}

// UpdateSubscriptionRequest carries the user-editable fields; nil means
// unchanged.
type UpdateSubscriptionRequest struct {
	Category     *string                 `json:"category" binding:"omitempty,max=60"`
	Status       *dbm.SubscriptionStatus `json:"status"`
	BillingCycle *dbm.BillingCycle       `json:"billing_cycle"`
}

func (r UpdateSubscriptionRequest) IsEmpty() bool {
	return r.Category == nil && r.Status == nil && r.BillingCycle == nil
}
