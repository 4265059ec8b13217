package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/models/request_models"
	"subtrack/internal/repositories"
	"subtrack/pkg/metrics"
	"subtrack/pkg/utils"
)

type ReconcileOutcome string

const (
	// OutcomeCreated: first charge for a new (user, service, currency) key.
	OutcomeCreated ReconcileOutcome = "created"
	// OutcomeUpdated: the charge is the newest seen and drove the aggregate.
	OutcomeUpdated ReconcileOutcome = "updated"
	// OutcomeStale: an older charge; counted in totals only.
	OutcomeStale ReconcileOutcome = "stale"
	// OutcomeDuplicate: the source message was already ingested.
	OutcomeDuplicate ReconcileOutcome = "duplicate"
)

const maxReconcileAttempts = 5

var errConcurrentUpdate = errors.New("subscription changed concurrently")

type ReconcileResult struct {
	Charge       *dbm.Charge
	Subscription *dbm.Subscription
	Outcome      ReconcileOutcome
}

type LedgerReconciler interface {
	// Reconcile idempotently folds one charge record into the ledger.
	Reconcile(ctx context.Context, userID uuid.UUID, rec request_models.ChargeRecord) (*ReconcileResult, error)

	// ReconcileTx performs the same fold inside the caller's transaction.
	// The record must already be normalized; callers run it under RunInTx.
	ReconcileTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, rec request_models.ChargeRecord) (*ReconcileResult, error)

	// RunInTx runs fn in a transaction, retrying when a concurrent writer
	// won a race on a ledger key.
	RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerReconciler struct {
	db      *gorm.DB
	charges repositories.ChargeRepository
	subs    repositories.SubscriptionRepository
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewLedgerReconciler(
	db *gorm.DB,
	charges repositories.ChargeRepository,
	subs repositories.SubscriptionRepository,
	m *metrics.Collector,
	log *zap.Logger,
) LedgerReconciler {
	return &ledgerReconciler{
		db:      db,
		charges: charges,
		subs:    subs,
		metrics: m,
		log:     log.Named("reconciler"),
	}
}

func (r *ledgerReconciler) Reconcile(ctx context.Context, userID uuid.UUID, rec request_models.ChargeRecord) (*ReconcileResult, error) {
	rec, err := rec.Normalize()
	if err != nil {
		return nil, err
	}

	var result *ReconcileResult
	err = r.RunInTx(ctx, func(tx *gorm.DB) error {
		res, err := r.ReconcileTx(ctx, tx, userID, rec)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.metrics.ReconcileOutcome(string(result.Outcome))
	r.log.Debug("charge reconciled",
		zap.String("user_id", userID.String()),
		zap.String("source_message_id", rec.SourceMessageID),
		zap.String("outcome", string(result.Outcome)))
	return result, nil
}

func (r *ledgerReconciler) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxReconcileAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, errConcurrentUpdate) && !errors.Is(err, repositories.ErrDuplicateKey) {
			return err
		}
		r.log.Debug("ledger write conflict, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}
	return fmt.Errorf("reconcile: gave up after %d attempts: %w", maxReconcileAttempts, err)
}

func (r *ledgerReconciler) ReconcileTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, rec request_models.ChargeRecord) (*ReconcileResult, error) {
	charges := r.charges.WithTx(tx)
	subs := r.subs.WithTx(tx)

	charge := &dbm.Charge{
		UserID:          userID,
		SourceMessageID: rec.SourceMessageID,
		Service:         rec.Service,
		Amount:          rec.Amount,
		Currency:        rec.Currency,
		BillingCycle:    rec.BillingCycle,
		Kind:            rec.Kind,
		ChargedAt:       rec.ChargedAt,
	}
	inserted, err := charges.InsertIfAbsent(ctx, charge)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return r.existing(ctx, charges, subs, userID, rec.SourceMessageID)
	}

	sub, err := subs.FindByKey(ctx, userID, rec.Service, rec.Currency)
	if err != nil {
		return nil, err
	}

	outcome := OutcomeCreated
	if sub == nil {
		sub = newSubscriptionFrom(userID, rec)
		created, err := subs.InsertIfAbsent(ctx, sub)
		if err != nil {
			return nil, err
		}
		if !created {
			// Someone else created the aggregate first; fold into theirs.
			if sub, err = subs.FindByKey(ctx, userID, rec.Service, rec.Currency); err != nil {
				return nil, err
			}
			if sub == nil {
				return nil, errConcurrentUpdate
			}
			if outcome, err = r.fold(ctx, subs, sub, rec); err != nil {
				return nil, err
			}
		}
	} else if outcome, err = r.fold(ctx, subs, sub, rec); err != nil {
		return nil, err
	}

	if err := charges.LinkSubscription(ctx, charge.ID, sub.ID); err != nil {
		return nil, err
	}
	charge.SubscriptionID = &sub.ID

	fresh, err := subs.FindByID(ctx, userID, sub.ID)
	if err != nil {
		return nil, err
	}
	return &ReconcileResult{Charge: charge, Subscription: fresh, Outcome: outcome}, nil
}

func (r *ledgerReconciler) existing(
	ctx context.Context,
	charges repositories.ChargeRepository,
	subs repositories.SubscriptionRepository,
	userID uuid.UUID,
	sourceMessageID string,
) (*ReconcileResult, error) {
	charge, err := charges.FindBySource(ctx, userID, sourceMessageID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, errConcurrentUpdate
	}
	result := &ReconcileResult{Charge: charge, Outcome: OutcomeDuplicate}
	if charge.SubscriptionID != nil {
		if result.Subscription, err = subs.FindByID(ctx, userID, *charge.SubscriptionID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// fold adds one more charge to an existing aggregate. Totals always move;
// cycle, amounts and renewal only follow the newest charge.
func (r *ledgerReconciler) fold(ctx context.Context, subs repositories.SubscriptionRepository, sub *dbm.Subscription, rec request_models.ChargeRecord) (ReconcileOutcome, error) {
	fields := map[string]any{
		"total_charges": sub.TotalCharges + 1,
		"total_amount":  sub.TotalAmount.Add(rec.Amount),
	}
	if rec.ChargedAt.Before(sub.FirstChargeAt) {
		fields["first_charge_at"] = rec.ChargedAt
	}

	outcome := OutcomeStale
	if !rec.ChargedAt.Before(sub.LastChargeAt) {
		for k, v := range latestChargeFields(rec) {
			fields[k] = v
		}
		outcome = OutcomeUpdated
	}
	if rec.PaymentFailed && sub.Status == dbm.SubStatusActive {
		fields["status"] = dbm.SubStatusPastDue
	}

	ok, err := subs.UpdateVersioned(ctx, sub.ID, sub.Version, fields)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errConcurrentUpdate
	}
	return outcome, nil
}

// latestChargeFields derives the cycle-dependent columns from the newest
// charge. A one-off billing anomaly therefore overwrites the cycle.
func latestChargeFields(rec request_models.ChargeRecord) map[string]any {
	monthly := utils.MonthlyAmount(rec.BillingCycle, rec.Amount)
	return map[string]any{
		"last_charge_at":          rec.ChargedAt,
		"billing_cycle":           rec.BillingCycle,
		"monthly_amount":          monthly,
		"estimated_monthly_spend": monthly,
		"last_amount":             rec.Amount,
		"next_renewal":            utils.NextRenewal(rec.ChargedAt, rec.BillingCycle),
	}
}

func newSubscriptionFrom(userID uuid.UUID, rec request_models.ChargeRecord) *dbm.Subscription {
	monthly := utils.MonthlyAmount(rec.BillingCycle, rec.Amount)
	status := dbm.SubStatusActive
	if rec.PaymentFailed {
		status = dbm.SubStatusPastDue
	}
	return &dbm.Subscription{
		UserID:                userID,
		Service:               rec.Service,
		Currency:              rec.Currency,
		BillingCycle:          rec.BillingCycle,
		Status:                status,
		MonthlyAmount:         monthly,
		EstimatedMonthlySpend: monthly,
		LastAmount:            rec.Amount,
		FirstChargeAt:         rec.ChargedAt,
		LastChargeAt:          rec.ChargedAt,
		NextRenewal:           utils.NextRenewal(rec.ChargedAt, rec.BillingCycle),
		TotalCharges:          1,
		TotalAmount:           rec.Amount,
	}
}
