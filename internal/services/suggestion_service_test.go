package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/models/request_models"
	"subtrack/internal/repositories"
	"subtrack/internal/testutils"
	"subtrack/pkg/metrics"
	"subtrack/pkg/utils"
)

func newSuggestionService(db *gorm.DB) SuggestionService {
	return NewSuggestionService(
		repositories.NewSuggestionRepository(db),
		repositories.NewIgnoredSenderRepository(db),
		newReconciler(db),
		metrics.NewCollector(),
		zap.NewNop(),
	)
}

func oneOff(msg, sender string) request_models.ChargeRecord {
	return request_models.ChargeRecord{
		SenderAddress:   sender,
		Subject:         "Your receipt",
		Service:         "Figma",
		Amount:          dec("45"),
		Currency:        "usd",
		BillingCycle:    dbm.CycleUnknown,
		Kind:            dbm.KindOneTimeCharge,
		ChargedAt:       testutils.Date(2024, 7, 10),
		SourceMessageID: msg,
	}
}

func pendingID(t *testing.T, svc SuggestionService, userID uuid.UUID) uuid.UUID {
	t.Helper()
	pending, err := svc.ListPending(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	return pending[0].ID
}

func TestSuggestion_CreateIsIdempotentPerMessage(t *testing.T) {
	db := testutils.NewTestDB(t)
	user := testutils.CreateUser(t, db, dbm.PlanFree)
	svc := newSuggestionService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, user.ID, oneOff("m1", "Billing@Figma.com"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Create(ctx, user.ID, oneOff("m1", "billing@figma.com"))
	require.NoError(t, err)
	assert.False(t, created)

	pending, err := svc.ListPending(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "billing@figma.com", pending[0].SenderAddress)
	assert.Equal(t, "USD", pending[0].Currency)
}

func TestSuggestion_AcceptPromotesIntoLedger(t *testing.T) {
	db := testutils.NewTestDB(t)
	user := testutils.CreateUser(t, db, dbm.PlanFree)
	svc := newSuggestionService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, oneOff("m1", "billing@figma.com"))
	require.NoError(t, err)
	id := pendingID(t, svc, user.ID)

	res, err := svc.Accept(ctx, user.ID, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	require.NotNil(t, res.Subscription)
	assert.Equal(t, "Figma", res.Subscription.Service)
	assert.Nil(t, res.Subscription.NextRenewal)
	assert.True(t, res.Subscription.MonthlyAmount.IsZero())

	var sg dbm.PendingSubscriptionSuggestion
	require.NoError(t, db.First(&sg, "id = ?", id).Error)
	assert.Equal(t, dbm.SuggestionAccepted, sg.Status)
	assert.NotNil(t, sg.DecidedAt)

	_, err = svc.Accept(ctx, user.ID, id)
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	err = svc.Ignore(ctx, user.ID, id)
	assert.ErrorIs(t, err, utils.ErrInvalidState)
}

func TestSuggestion_AcceptIgnoredCreatesNothing(t *testing.T) {
	db := testutils.NewTestDB(t)
	user := testutils.CreateUser(t, db, dbm.PlanFree)
	svc := newSuggestionService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, oneOff("m1", "billing@figma.com"))
	require.NoError(t, err)
	id := pendingID(t, svc, user.ID)

	require.NoError(t, svc.Ignore(ctx, user.ID, id))

	_, err = svc.Accept(ctx, user.ID, id)
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	var charges int64
	require.NoError(t, db.Model(&dbm.Charge{}).Count(&charges).Error)
	assert.Zero(t, charges)

	senders, err := svc.ListIgnoredSenders(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, senders, 1)
	assert.Equal(t, "billing@figma.com", senders[0].SenderAddress)

	created, err := svc.Create(ctx, user.ID, oneOff("m2", "BILLING@figma.com"))
	require.NoError(t, err)
	assert.False(t, created, "ignored sender must not produce new suggestions")
}

func TestSuggestion_OwnershipIsNotFound(t *testing.T) {
	db := testutils.NewTestDB(t)
	owner := testutils.CreateUser(t, db, dbm.PlanFree)
	other := testutils.CreateUser(t, db, dbm.PlanFree)
	svc := newSuggestionService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, oneOff("m1", "billing@figma.com"))
	require.NoError(t, err)
	id := pendingID(t, svc, owner.ID)

	_, err = svc.Accept(ctx, other.ID, id)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.ErrorIs(t, svc.Ignore(ctx, other.ID, id), utils.ErrNotFound)
	_, err = svc.Accept(ctx, owner.ID, uuid.New())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
