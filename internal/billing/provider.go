// Package billing talks to the payment provider. Plan tiers reported by the
// provider are trusted as-is.
package billing

import (
	"context"
	"errors"

	dbm "subtrack/internal/models/db_models"
)

type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.session.completed"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
)

var ErrInvalidSignature = errors.New("billing: invalid webhook signature")

type CheckoutRequest struct {
	UserID     string
	Email      string
	CustomerID string
	Plan       dbm.Plan
}

// Event is the part of a provider webhook the ledger acts on. Events of
// other types are returned with only Type set.
type Event struct {
	ID         string
	Type       EventType
	UserID     string
	CustomerID string
	Plan       dbm.Plan
}

type Provider interface {
	CheckoutURL(ctx context.Context, req CheckoutRequest) (string, error)
	PortalURL(ctx context.Context, customerID string) (string, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
