package ledger_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"subtrack/internal/config"
	"subtrack/internal/repositories"
	"subtrack/internal/services"
	"subtrack/pkg/metrics"
)

var Module = fx.Provide(
	repositories.NewChargeRepository,
	repositories.NewSubscriptionRepository,
	services.NewLedgerReconciler,
	services.NewIngestService,
	provideSubscriptionService,
)

func provideSubscriptionService(
	cfg *config.Config,
	users repositories.UserRepository,
	subs repositories.SubscriptionRepository,
	charges repositories.ChargeRepository,
	reconciler services.LedgerReconciler,
	m *metrics.Collector,
	log *zap.Logger,
) services.SubscriptionServiceInterface {
	return services.NewSubscriptionService(users, subs, charges, reconciler,
		services.SubscriptionOptions{FreeLimit: cfg.Ledger.FreeSubscriptionLimit}, m, log)
}
