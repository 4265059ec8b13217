package response_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbm "subtrack/internal/models/db_models"
)

type SubscriptionResponse struct {
	ID                    uuid.UUID              `json:"id"`
	Service               string                 `json:"service"`
	Currency              string                 `json:"currency"`
	Category              string                 `json:"category,omitempty"`
	BillingCycle          dbm.BillingCycle       `json:"billing_cycle"`
	Status                dbm.SubscriptionStatus `json:"status"`
	MonthlyAmount         decimal.Decimal        `json:"monthly_amount"`
	EstimatedMonthlySpend decimal.Decimal        `json:"estimated_monthly_spend"`
	LastAmount            decimal.Decimal        `json:"last_amount"`
	FirstChargeAt         time.Time              `json:"first_charge_at"`
	LastChargeAt          time.Time              `json:"last_charge_at"`
	NextRenewal           *time.Time             `json:"next_renewal"`
	TotalCharges          int64                  `json:"total_charges"`
	TotalAmount           decimal.Decimal        `json:"total_amount"`
	DeletedAt             *time.Time             `json:"deleted_at,omitempty"`
}

type ChargeResponse struct {
	ID              uuid.UUID        `json:"id"`
	SubscriptionID  *uuid.UUID       `json:"subscription_id"`
	SourceMessageID string           `json:"source_message_id"`
	Service         string           `json:"service"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	BillingCycle    dbm.BillingCycle `json:"billing_cycle"`
	Kind            dbm.ChargeKind   `json:"kind"`
	ChargedAt       time.Time        `json:"charged_at"`
}

type ReconcileResponse struct {
	Outcome      string                `json:"outcome"`
	Charge       ChargeResponse        `json:"charge"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}

type SuggestionResponse struct {
	ID              uuid.UUID            `json:"id"`
	SourceMessageID string               `json:"source_message_id"`
	SenderAddress   string               `json:"sender_address"`
	Subject         string               `json:"subject,omitempty"`
	Service         string               `json:"service"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        string               `json:"currency"`
	BillingCycle    dbm.BillingCycle     `json:"billing_cycle"`
	Kind            dbm.ChargeKind       `json:"kind"`
	ChargedAt       time.Time            `json:"charged_at"`
	PaymentFailed   bool                 `json:"payment_failed"`
	Status          dbm.SuggestionStatus `json:"status"`
}

type IgnoredSenderResponse struct {
	SenderAddress string    `json:"sender_address"`
	IgnoredAt     time.Time `json:"ignored_at"`
}

type CreateCheckoutResponse struct {
	URL string `json:"url"`
}

func NewSubscriptionResponse(s *dbm.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                    s.ID,
		Service:               s.Service,
		Currency:              s.Currency,
		Category:              s.Category,
		BillingCycle:          s.BillingCycle,
		Status:                s.Status,
		MonthlyAmount:         s.MonthlyAmount,
		EstimatedMonthlySpend: s.EstimatedMonthlySpend,
		LastAmount:            s.LastAmount,
		FirstChargeAt:         s.FirstChargeAt,
		LastChargeAt:          s.LastChargeAt,
		NextRenewal:           s.NextRenewal,
		TotalCharges:          s.TotalCharges,
		TotalAmount:           s.TotalAmount,
		DeletedAt:             s.DeletedAt,
	}
}

func NewSubscriptionList(subs []dbm.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, NewSubscriptionResponse(&subs[i]))
	}
	return out
}

func NewChargeResponse(c *dbm.Charge) ChargeResponse {
	return ChargeResponse{
		ID:              c.ID,
		SubscriptionID:  c.SubscriptionID,
		SourceMessageID: c.SourceMessageID,
		Service:         c.Service,
		Amount:          c.Amount,
		Currency:        c.Currency,
		BillingCycle:    c.BillingCycle,
		Kind:            c.Kind,
		ChargedAt:       c.ChargedAt,
	}
}

func NewChargeList(charges []dbm.Charge) []ChargeResponse {
	out := make([]ChargeResponse, 0, len(charges))
	for i := range charges {
		out = append(out, NewChargeResponse(&charges[i]))
	}
	return out
}

func NewSuggestionList(suggestions []dbm.PendingSubscriptionSuggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, SuggestionResponse{
			ID:              s.ID,
			SourceMessageID: s.SourceMessageID,
			SenderAddress:   s.SenderAddress,
			Subject:         s.Subject,
			Service:         s.Service,
			Amount:          s.Amount,
			Currency:        s.Currency,
			BillingCycle:    s.BillingCycle,
			Kind:            s.Kind,
			ChargedAt:       s.ChargedAt,
			PaymentFailed:   s.PaymentFailed,
			Status:          s.Status,
		})
	}
	return out
}

func NewIgnoredSenderList(senders []dbm.IgnoredSender) []IgnoredSenderResponse {
	out := make([]IgnoredSenderResponse, 0, len(senders))
	for _, s := range senders {
		out = append(out, IgnoredSenderResponse{
			SenderAddress: s.SenderAddress,
			IgnoredAt:     time.Unix(s.CreatedAt, 0).UTC(),
		})
	}
	return out
}
