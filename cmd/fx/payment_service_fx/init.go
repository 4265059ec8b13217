package payment_service_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"subtrack/internal/billing"
	"subtrack/internal/config"
	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/repositories"
	"subtrack/internal/services"
)

var Module = fx.Provide(
	providePaymentService,
)

func providePaymentService(cfg *config.Config, users repositories.UserRepository, log *zap.Logger) services.PaymentService {
	var provider billing.Provider
	if cfg.Billing.Enabled() {
		provider = billing.NewStripeProvider(billing.StripeConfig{
			SecretKey:     cfg.Billing.StripeSecretKey,
			WebhookSecret: cfg.Billing.StripeWebhookSecret,
			PriceIDs: map[dbm.Plan]string{
				dbm.PlanPro:     cfg.Billing.ProPriceID,
				dbm.PlanPremium: cfg.Billing.PremiumPriceID,
			},
			SuccessURL:      cfg.Billing.SuccessURL,
			CancelURL:       cfg.Billing.CancelURL,
			PortalReturnURL: cfg.Billing.PortalReturnURL,
		})
	} else {
		log.Warn("billing disabled: STRIPE_SECRET_KEY or STRIPE_WEBHOOK_SECRET not set")
	}
	return services.NewPaymentService(users, provider, log)
}
