package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subtrack/internal/billing"
	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/repositories"
	"subtrack/pkg/utils"
)

type BillingStatus struct {
	Plan dbm.Plan `json:"plan"`
	Paid bool     `json:"paid"`
}

type PaymentService interface {
	CreateCheckoutForPlan(ctx context.Context, userID uuid.UUID, plan dbm.Plan) (string, error)
	CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error)
	Status(ctx context.Context, userID uuid.UUID) (*BillingStatus, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	users    repositories.UserRepository
	provider billing.Provider
	log      *zap.Logger
}

// NewPaymentService accepts a nil provider; billing calls then fail with
// utils.ErrBillingNotConfigured while Status keeps working.
func NewPaymentService(users repositories.UserRepository, provider billing.Provider, log *zap.Logger) PaymentService {
	return &paymentService{
		users:    users,
		provider: provider,
		log:      log.Named("billing"),
	}
}

func (p *paymentService) CreateCheckoutForPlan(ctx context.Context, userID uuid.UUID, plan dbm.Plan) (string, error) {
	if p.provider == nil {
		return "", utils.ErrBillingNotConfigured
	}
	if !plan.IsPaid() {
		return "", fmt.Errorf("%w: plan %q is not purchasable", utils.ErrValidation, plan)
	}

	user, err := p.user(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Plan == plan {
		return "", fmt.Errorf("already on %s: %w", plan, utils.ErrInvalidState)
	}

	req := billing.CheckoutRequest{UserID: user.ID.String(), Email: user.Email, Plan: plan}
	if user.StripeCustomerID != nil {
		req.CustomerID = *user.StripeCustomerID
	}
	return p.provider.CheckoutURL(ctx, req)
}

func (p *paymentService) CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if p.provider == nil {
		return "", utils.ErrBillingNotConfigured
	}
	user, err := p.user(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return "", fmt.Errorf("no billing customer: %w", utils.ErrInvalidState)
	}
	return p.provider.PortalURL(ctx, *user.StripeCustomerID)
}

func (p *paymentService) Status(ctx context.Context, userID uuid.UUID) (*BillingStatus, error) {
	user, err := p.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BillingStatus{Plan: user.Plan, Paid: user.Plan.IsPaid()}, nil
}

func (p *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if p.provider == nil {
		return utils.ErrBillingNotConfigured
	}
	event, err := p.provider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) || errors.Is(err, dbm.ErrUnknownValue) {
			return fmt.Errorf("%w: %w", utils.ErrValidation, err)
		}
		return err
	}

	switch event.Type {
	case billing.EventCheckoutCompleted:
		return p.applyCheckout(ctx, event)
	case billing.EventSubscriptionDeleted:
		return p.applyCancellation(ctx, event)
	default:
		p.log.Debug("webhook ignored", zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
		return nil
	}
}

func (p *paymentService) applyCheckout(ctx context.Context, event *billing.Event) error {
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		p.log.Warn("checkout without a user reference", zap.String("event_id", event.ID))
		return nil
	}
	if event.CustomerID != "" {
		if err := p.users.SetStripeCustomer(ctx, userID, event.CustomerID); err != nil {
			return p.unknownUserIsNoop(event, err)
		}
	}
	if err := p.users.UpdatePlan(ctx, userID, event.Plan); err != nil {
		return p.unknownUserIsNoop(event, err)
	}
	p.log.Info("plan upgraded", zap.String("user_id", userID.String()), zap.String("plan", string(event.Plan)))
	return nil
}

func (p *paymentService) applyCancellation(ctx context.Context, event *billing.Event) error {
	if event.CustomerID == "" {
		return nil
	}
	user, err := p.users.FindByStripeCustomer(ctx, event.CustomerID)
	if err != nil {
		return err
	}
	if user == nil {
		p.log.Warn("cancellation for unknown customer", zap.String("event_id", event.ID))
		return nil
	}
	if err := p.users.UpdatePlan(ctx, user.ID, dbm.PlanFree); err != nil {
		return err
	}
	p.log.Info("plan downgraded", zap.String("user_id", user.ID.String()))
	return nil
}

// unknownUserIsNoop acknowledges events for users that no longer exist so
// the provider stops retrying them.
func (p *paymentService) unknownUserIsNoop(event *billing.Event, err error) error {
	if errors.Is(err, utils.ErrNotFound) {
		p.log.Warn("webhook for unknown user", zap.String("event_id", event.ID), zap.String("user_id", event.UserID))
		return nil
	}
	return err
}

func (p *paymentService) user(ctx context.Context, userID uuid.UUID) (*dbm.User, error) {
	user, err := p.users.FindById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrUnauthorized
	}
	return user, nil
}
