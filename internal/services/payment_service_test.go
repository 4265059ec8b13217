package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"subtrack/internal/billing"
	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/repositories"
	"subtrack/internal/testutils"
	"subtrack/pkg/utils"
)

type fakeProvider struct {
	checkout billing.CheckoutRequest
	portal   string
	event    *billing.Event
}

func (f *fakeProvider) CheckoutURL(_ context.Context, req billing.CheckoutRequest) (string, error) {
	f.checkout = req
	return "https://pay.example/checkout", nil
}

func (f *fakeProvider) PortalURL(_ context.Context, customerID string) (string, error) {
	f.portal = customerID
	return "https://pay.example/portal", nil
}

func (f *fakeProvider) ParseWebhook(_ []byte, signature string) (*billing.Event, error) {
	if signature != "ok" {
		return nil, billing.ErrInvalidSignature
	}
	if f.event == nil {
		return nil, errors.New("no event queued")
	}
	return f.event, nil
}

func TestPayment_CheckoutWebhookPortalFlow(t *testing.T) {
	db := testutils.NewTestDB(t)
	user := testutils.CreateUser(t, db, dbm.PlanFree)
	users := repositories.NewUserRepository(db)
	provider := &fakeProvider{}
	svc := NewPaymentService(users, provider, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreatePortalSession(ctx, user.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	url, err := svc.CreateCheckoutForPlan(ctx, user.ID, dbm.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout", url)
	assert.Equal(t, user.ID.String(), provider.checkout.UserID)
	assert.Equal(t, dbm.PlanPro, provider.checkout.Plan)

	assert.ErrorIs(t, svc.HandleWebhook(ctx, []byte("{}"), "forged"), utils.ErrValidation)

	provider.event = &billing.Event{
		ID:         "evt_1",
		Type:       billing.EventCheckoutCompleted,
		UserID:     user.ID.String(),
		CustomerID: "cus_123",
		Plan:       dbm.PlanPro,
	}
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "ok"))

	status, err := svc.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, dbm.PlanPro, status.Plan)
	assert.True(t, status.Paid)

	_, err = svc.CreateCheckoutForPlan(ctx, user.ID, dbm.PlanPro)
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	url, err = svc.CreatePortalSession(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/portal", url)
	assert.Equal(t, "cus_123", provider.portal)

	provider.event = &billing.Event{ID: "evt_2", Type: billing.EventSubscriptionDeleted, CustomerID: "cus_123", Plan: dbm.PlanFree}
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "ok"))

	status, err = svc.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, dbm.PlanFree, status.Plan)
	assert.False(t, status.Paid)
}

func TestPayment_WebhookForUnknownUsersIsAcknowledged(t *testing.T) {
	db := testutils.NewTestDB(t)
	provider := &fakeProvider{event: &billing.Event{
		ID:     "evt_1",
		Type:   billing.EventCheckoutCompleted,
		UserID: uuid.NewString(),
		Plan:   dbm.PlanPremium,
	}}
	svc := NewPaymentService(repositories.NewUserRepository(db), provider, zap.NewNop())

	assert.NoError(t, svc.HandleWebhook(context.Background(), nil, "ok"))

	provider.event = &billing.Event{ID: "evt_2", Type: billing.EventSubscriptionDeleted, CustomerID: "cus_missing"}
	assert.NoError(t, svc.HandleWebhook(context.Background(), nil, "ok"))
}

func TestPayment_NotConfigured(t *testing.T) {
	db := testutils.NewTestDB(t)
	user := testutils.CreateUser(t, db, dbm.PlanFree)
	svc := NewPaymentService(repositories.NewUserRepository(db), nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreateCheckoutForPlan(ctx, user.ID, dbm.PlanPro)
	assert.ErrorIs(t, err, utils.ErrBillingNotConfigured)
	assert.ErrorIs(t, svc.HandleWebhook(ctx, nil, "ok"), utils.ErrBillingNotConfigured)

	status, err := svc.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, dbm.PlanFree, status.Plan)
}
