package request_models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dbm "subtrack/internal/models/db_models"
	"subtrack/pkg/utils"
)

// ChargeRecord is one classified upstream message.
type ChargeRecord struct {
	SenderAddress   string           `json:"sender_address"`
	Subject         string           `json:"subject"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Service         string           `json:"service"`
	BillingCycle    dbm.BillingCycle `json:"billing_cycle"`
	Kind            dbm.ChargeKind   `json:"kind"`
	ChargedAt       time.Time        `json:"charged_at"`
	SourceMessageID string           `json:"source_message_id"`

	// PaymentFailed is the classifier's past-due signal.
	PaymentFailed bool `json:"payment_failed"`
}

// Normalize validates the financial fields and returns a canonical copy:
// trimmed service, upper-case currency, lower-case sender, UTC timestamp.
func (r ChargeRecord) Normalize() (ChargeRecord, error) {
	out := r
	out.Service = strings.TrimSpace(r.Service)
	out.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	out.SenderAddress = NormalizeSender(r.SenderAddress)
	out.SourceMessageID = strings.TrimSpace(r.SourceMessageID)
	out.ChargedAt = r.ChargedAt.UTC()

	var errs []error
	if out.Service == "" {
		errs = append(errs, errors.New("service is required"))
	}
	if len(out.Currency) != 3 {
		errs = append(errs, fmt.Errorf("currency %q must be a 3-letter code", r.Currency))
	}
	if !out.Amount.IsPositive() {
		errs = append(errs, fmt.Errorf("amount %s must be positive", r.Amount))
	}
	if out.SourceMessageID == "" {
		errs = append(errs, errors.New("source_message_id is required"))
	}
	if r.ChargedAt.IsZero() {
		errs = append(errs, errors.New("charged_at is required"))
	}

	cycle, err := dbm.ParseBillingCycle(string(r.BillingCycle))
	if err != nil {
		errs = append(errs, err)
	}
	out.BillingCycle = cycle

	kind, err := dbm.ParseChargeKind(string(r.Kind))
	if err != nil {
		errs = append(errs, err)
	}
	out.Kind = kind

	if len(errs) > 0 {
		return ChargeRecord{}, fmt.Errorf("%w: %w", utils.ErrValidation, errors.Join(errs...))
	}
	return out, nil
}

func NormalizeSender(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type IngestRequest struct {
	Records []ChargeRecord `json:"records" binding:"required,max=500"`
}
