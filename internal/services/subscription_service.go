package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/models/request_models"
	"subtrack/internal/repositories"
	"subtrack/pkg/metrics"
	"subtrack/pkg/utils"
)

const (
	DefaultUpcomingDays = 30
	MaxUpcomingDays     = 365
)

type CurrencySpend struct {
	Currency     string          `json:"currency"`
	MonthlySpend decimal.Decimal `json:"monthly_spend"`
	Count        int             `json:"count"`
}

type SpendSummary struct {
	Currencies  []CurrencySpend `json:"currencies"`
	ActiveCount int             `json:"active_count"`
	TotalCount  int             `json:"total_count"`
}

type SubscriptionServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]dbm.Subscription, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*dbm.Subscription, error)
	Charges(ctx context.Context, userID, id uuid.UUID) ([]dbm.Charge, error)
	Create(ctx context.Context, userID uuid.UUID, req request_models.CreateSubscriptionRequest) (*ReconcileResult, error)
	Update(ctx context.Context, userID, id uuid.UUID, req request_models.UpdateSubscriptionRequest) (*dbm.Subscription, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Restore(ctx context.Context, userID, id uuid.UUID) (*dbm.Subscription, error)
	Summary(ctx context.Context, userID uuid.UUID) (*SpendSummary, error)
	Upcoming(ctx context.Context, userID uuid.UUID, days int) ([]dbm.Subscription, error)
}

type SubscriptionOptions struct {
	// FreeLimit caps active subscriptions for users on the free plan.
	FreeLimit int
}

type SubscriptionService struct {
	users      repositories.UserRepository
	subs       repositories.SubscriptionRepository
	charges    repositories.ChargeRepository
	reconciler LedgerReconciler
	opts       SubscriptionOptions
	metrics    *metrics.Collector
	log        *zap.Logger
	now        func() time.Time
}

func NewSubscriptionService(
	users repositories.UserRepository,
	subs repositories.SubscriptionRepository,
	charges repositories.ChargeRepository,
	reconciler LedgerReconciler,
	opts SubscriptionOptions,
	m *metrics.Collector,
	log *zap.Logger,
) SubscriptionServiceInterface {
	return &SubscriptionService{
		users:      users,
		subs:       subs,
		charges:    charges,
		reconciler: reconciler,
		opts:       opts,
		metrics:    m,
		log:        log.Named("subscriptions"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *SubscriptionService) List(ctx context.Context, userID uuid.UUID) ([]dbm.Subscription, error) {
	return s.subs.ListActive(ctx, userID)
}

func (s *SubscriptionService) Get(ctx context.Context, userID, id uuid.UUID) (*dbm.Subscription, error) {
	return getOwned(ctx, s.subs, userID, id)
}

func (s *SubscriptionService) Charges(ctx context.Context, userID, id uuid.UUID) ([]dbm.Charge, error) {
	if _, err := getOwned(ctx, s.subs, userID, id); err != nil {
		return nil, err
	}
	return s.charges.ListBySubscription(ctx, userID, id)
}

// Create records a manually entered charge. A soft-deleted subscription with
// the same service and currency is restored rather than duplicated.
func (s *SubscriptionService) Create(ctx context.Context, userID uuid.UUID, req request_models.CreateSubscriptionRequest) (*ReconcileResult, error) {
	rec, err := request_models.ChargeRecord{
		Service:         req.Service,
		Currency:        req.Currency,
		Amount:          req.Amount,
		BillingCycle:    req.BillingCycle,
		Kind:            dbm.KindSubscription,
		ChargedAt:       req.ChargedAt,
		SourceMessageID: "manual:" + uuid.NewString(),
	}.Normalize()
	if err != nil {
		return nil, err
	}

	paid, err := s.isPaid(ctx, userID)
	if err != nil {
		return nil, err
	}

	var result *ReconcileResult
	err = s.reconciler.RunInTx(ctx, func(tx *gorm.DB) error {
		subs := s.subs.WithTx(tx)

		current, err := subs.FindByKey(ctx, userID, rec.Service, rec.Currency)
		if err != nil {
			return err
		}
		if current == nil || current.IsDeleted() {
			if err := s.checkLimit(ctx, subs, userID, paid); err != nil {
				return err
			}
		}
		if current != nil && current.IsDeleted() {
			if _, err := subs.SetDeleted(ctx, userID, current.ID, nil); err != nil {
				return err
			}
		}

		if result, err = s.reconciler.ReconcileTx(ctx, tx, userID, rec); err != nil {
			return err
		}

		category := strings.TrimSpace(req.Category)
		if category == "" || result.Subscription == nil {
			return nil
		}
		ok, err := subs.UpdateVersioned(ctx, result.Subscription.ID, result.Subscription.Version, map[string]any{"category": category})
		if err != nil {
			return err
		}
		if !ok {
			return errConcurrentUpdate
		}
		result.Subscription.Category = category
		result.Subscription.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ReconcileOutcome(string(result.Outcome))
	s.log.Info("manual subscription recorded",
		zap.String("user_id", userID.String()),
		zap.String("service", rec.Service),
		zap.String("outcome", string(result.Outcome)))
	return result, nil
}

// isPaid reads the stored plan; the plan claim in the session may lag it.
func (s *SubscriptionService) isPaid(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.users.FindById(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, utils.ErrUnauthorized
	}
	return user.Plan.IsPaid(), nil
}

// checkLimit rejects a new active subscription for free users at the cap.
func (s *SubscriptionService) checkLimit(ctx context.Context, subs repositories.SubscriptionRepository, userID uuid.UUID, paid bool) error {
	if paid || s.opts.FreeLimit <= 0 {
		return nil
	}
	n, err := subs.CountActive(ctx, userID)
	if err != nil {
		return err
	}
	if n >= int64(s.opts.FreeLimit) {
		return fmt.Errorf("%d of %d subscriptions: %w", n, s.opts.FreeLimit, utils.ErrPlanLimitReached)
	}
	return nil
}

// Update applies an explicit user edit. Changing the cycle recomputes the
// derived amounts from the last charge.
func (s *SubscriptionService) Update(ctx context.Context, userID, id uuid.UUID, req request_models.UpdateSubscriptionRequest) (*dbm.Subscription, error) {
	if req.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", utils.ErrValidation)
	}

	var updated *dbm.Subscription
	err := s.reconciler.RunInTx(ctx, func(tx *gorm.DB) error {
		subs := s.subs.WithTx(tx)
		sub, err := getOwned(ctx, subs, userID, id)
		if err != nil {
			return err
		}
		if sub.IsDeleted() {
			return fmt.Errorf("subscription %s is deleted: %w", id, utils.ErrInvalidState)
		}

		fields := map[string]any{}
		if req.Category != nil {
			fields["category"] = strings.TrimSpace(*req.Category)
		}
		if req.Status != nil {
			fields["status"] = *req.Status
		}
		if req.BillingCycle != nil {
			cycle := *req.BillingCycle
			monthly := utils.MonthlyAmount(cycle, sub.LastAmount)
			fields["billing_cycle"] = cycle
			fields["monthly_amount"] = monthly
			fields["estimated_monthly_spend"] = monthly
			fields["next_renewal"] = utils.NextRenewal(sub.LastChargeAt, cycle)
		}

		ok, err := subs.UpdateVersioned(ctx, sub.ID, sub.Version, fields)
		if err != nil {
			return err
		}
		if !ok {
			return errConcurrentUpdate
		}
		updated, err = subs.FindByID(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	now := s.now()
	ok, err := s.subs.SetDeleted(ctx, userID, id, &now)
	if err != nil {
		return err
	}
	if !ok {
		return s.explainNoop(ctx, userID, id, "already deleted")
	}
	return nil
}

func (s *SubscriptionService) Restore(ctx context.Context, userID, id uuid.UUID) (*dbm.Subscription, error) {
	paid, err := s.isPaid(ctx, userID)
	if err != nil {
		return nil, err
	}

	var restored *dbm.Subscription
	err = s.reconciler.RunInTx(ctx, func(tx *gorm.DB) error {
		subs := s.subs.WithTx(tx)
		sub, err := getOwned(ctx, subs, userID, id)
		if err != nil {
			return err
		}
		if !sub.IsDeleted() {
			return fmt.Errorf("subscription %s is not deleted: %w", id, utils.ErrInvalidState)
		}
		if err := s.checkLimit(ctx, subs, userID, paid); err != nil {
			return err
		}
		ok, err := subs.SetDeleted(ctx, userID, id, nil)
		if err != nil {
			return err
		}
		if !ok {
			return errConcurrentUpdate
		}
		restored, err = subs.FindByID(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// explainNoop turns a conditional write that matched nothing into NotFound
// or InvalidState.
func (s *SubscriptionService) explainNoop(ctx context.Context, userID, id uuid.UUID, state string) error {
	if _, err := getOwned(ctx, s.subs, userID, id); err != nil {
		return err
	}
	return fmt.Errorf("subscription %s %s: %w", id, state, utils.ErrInvalidState)
}

func (s *SubscriptionService) Summary(ctx context.Context, userID uuid.UUID) (*SpendSummary, error) {
	subs, err := s.subs.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &SpendSummary{Currencies: []CurrencySpend{}, TotalCount: len(subs)}
	byCurrency := map[string]*CurrencySpend{}
	for _, sub := range subs {
		if sub.Status != dbm.SubStatusActive {
			continue
		}
		summary.ActiveCount++
		cs, ok := byCurrency[sub.Currency]
		if !ok {
			cs = &CurrencySpend{Currency: sub.Currency, MonthlySpend: decimal.Zero}
			byCurrency[sub.Currency] = cs
		}
		cs.MonthlySpend = cs.MonthlySpend.Add(sub.EstimatedMonthlySpend)
		cs.Count++
	}
	for _, cs := range byCurrency {
		summary.Currencies = append(summary.Currencies, *cs)
	}
	slices.SortFunc(summary.Currencies, func(a, b CurrencySpend) int {
		return strings.Compare(a.Currency, b.Currency)
	})
	return summary, nil
}

func (s *SubscriptionService) Upcoming(ctx context.Context, userID uuid.UUID, days int) ([]dbm.Subscription, error) {
	if days < 1 || days > MaxUpcomingDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", utils.ErrValidation, MaxUpcomingDays)
	}
	now := s.now()
	return s.subs.ListRenewingBetween(ctx, userID, now, now.AddDate(0, 0, days))
}

func getOwned(ctx context.Context, subs repositories.SubscriptionRepository, userID, id uuid.UUID) (*dbm.Subscription, error) {
	sub, err := subs.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("subscription %s: %w", id, utils.ErrNotFound)
	}
	return sub, nil
}
