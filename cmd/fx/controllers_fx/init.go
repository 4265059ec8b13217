package controllers_fx

import (
	"go.uber.org/fx"

	"subtrack/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewSubscriptionController),
	fx.Provide(controllers.NewSuggestionController),
	fx.Provide(controllers.NewIngestController),
	fx.Provide(controllers.NewPaymentController),
	fx.Provide(controllers.NewHealthController))
