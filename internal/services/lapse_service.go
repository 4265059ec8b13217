package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/repositories"
	"subtrack/pkg/metrics"
	"subtrack/pkg/utils"
)

const (
	onHoldAfterCycles  = 1
	expiredAfterCycles = 3
)

type LapseService interface {
	// Sweep moves subscriptions whose expected charge never arrived to
	// on_hold and then expired. It returns the number of transitions.
	Sweep(ctx context.Context, now time.Time) (int, error)
	// Run sweeps immediately and then on every interval until ctx ends.
	Run(ctx context.Context, interval time.Duration)
}

type lapseService struct {
	subs    repositories.SubscriptionRepository
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewLapseService(subs repositories.SubscriptionRepository, m *metrics.Collector, log *zap.Logger) LapseService {
	return &lapseService{
		subs:    subs,
		metrics: m,
		log:     log.Named("lapse"),
	}
}

// lapseTarget returns the status a subscription should hold at now, or ""
// when it should stay as it is.
func lapseTarget(sub dbm.Subscription, now time.Time) dbm.SubscriptionStatus {
	if sub.NextRenewal == nil || !sub.BillingCycle.IsRecurring() {
		return ""
	}
	due := *sub.NextRenewal

	switch sub.Status {
	case dbm.SubStatusActive, dbm.SubStatusPastDue:
		if now.After(utils.CyclePeriodEnd(due, sub.BillingCycle, onHoldAfterCycles)) {
			return dbm.SubStatusOnHold
		}
	case dbm.SubStatusOnHold:
		if now.After(utils.CyclePeriodEnd(due, sub.BillingCycle, expiredAfterCycles)) {
			return dbm.SubStatusExpired
		}
	}
	return ""
}

func (l *lapseService) Sweep(ctx context.Context, now time.Time) (int, error) {
	candidates, err := l.subs.ListLapseCandidates(ctx, now)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, sub := range candidates {
		to := lapseTarget(sub, now)
		if to == "" {
			continue
		}
		ok, err := l.subs.UpdateVersioned(ctx, sub.ID, sub.Version, map[string]any{"status": to})
		if err != nil {
			return moved, err
		}
		if !ok {
			// Changed under us; the next sweep sees the new state.
			continue
		}
		moved++
		l.metrics.LapseTransition(string(to))
		l.log.Info("subscription lapsed",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("from", string(sub.Status)),
			zap.String("to", string(to)))
	}
	return moved, nil
}

func (l *lapseService) Run(ctx context.Context, interval time.Duration) {
	sweep := func() {
		defer func() {
			if r := recover(); r != nil {
				l.log.Error("lapse sweep panicked", zap.Any("panic", r))
			}
		}()
		if _, err := l.Sweep(ctx, time.Now().UTC()); err != nil && ctx.Err() == nil {
			l.log.Warn("lapse sweep failed", zap.Error(err))
		}
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
