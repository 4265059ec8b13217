package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"subtrack/internal/api/controllers"
	"subtrack/pkg/metrics"
	"subtrack/pkg/middleware"
)

type Controllers struct {
	Account      *controllers.AccountController
	Subscription *controllers.SubscriptionController
	Suggestion   *controllers.SuggestionController
	Ingest       *controllers.IngestController
	Payment      *controllers.PaymentController
	Health       *controllers.HealthController
}

type RouterOptions struct {
	CORSOrigin   string
	MetricsToken string
}

func NewRouter(
	ctrls Controllers,
	guard *middleware.SessionGuard,
	m *metrics.Collector,
	log *zap.Logger,
	opts RouterOptions,
) *gin.Engine {
	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORSMiddleware(opts.CORSOrigin))

	RegisterRoutes(r, ctrls, guard, opts)
	return r
}

func RegisterRoutes(r *gin.Engine, ctrls Controllers, guard *middleware.SessionGuard, opts RouterOptions) {
	r.GET("/", guard.OptionalSession(), ctrls.Account.Home)
	r.GET("/health", ctrls.Health.Health)
	r.GET("/metrics", middleware.MetricsAuth(opts.MetricsToken), ctrls.Health.Metrics)

	authGroup := r.Group("/auth")
	authGroup.POST("/register", ctrls.Account.Register)
	authGroup.POST("/login", ctrls.Account.Login)
	authGroup.POST("/logout", ctrls.Account.Logout)
	authGroup.GET("/me", guard.RequireSession(), ctrls.Account.Me)

	r.POST("/billing/webhook", ctrls.Payment.HandleWebhook)

	authed := r.Group("/", guard.RequireSession())

	subsGroup := authed.Group("/subscriptions")
	subsGroup.GET("", ctrls.Subscription.ListSubscriptions)
	subsGroup.POST("", ctrls.Subscription.CreateSubscription)
	subsGroup.GET("/summary", ctrls.Subscription.Summary)
	subsGroup.GET("/upcoming", ctrls.Subscription.Upcoming)
	subsGroup.GET("/:id", ctrls.Subscription.GetSubscription)
	subsGroup.PATCH("/:id", ctrls.Subscription.UpdateSubscription)
	subsGroup.DELETE("/:id", ctrls.Subscription.DeleteSubscription)
	subsGroup.GET("/:id/charges", ctrls.Subscription.ListCharges)
	subsGroup.POST("/:id/restore", ctrls.Subscription.RestoreSubscription)

	suggestionsGroup := authed.Group("/suggestions")
	suggestionsGroup.GET("", ctrls.Suggestion.ListSuggestions)
	suggestionsGroup.POST("/:id/accept", ctrls.Suggestion.AcceptSuggestion)
	suggestionsGroup.POST("/:id/ignore", ctrls.Suggestion.IgnoreSuggestion)
	authed.GET("/ignored-senders", ctrls.Suggestion.ListIgnoredSenders)

	authed.POST("/ingest", ctrls.Ingest.Ingest)

	billingGroup := authed.Group("/billing")
	billingGroup.POST("/checkout", ctrls.Payment.CreateCheckoutRequest)
	billingGroup.POST("/portal", ctrls.Payment.CreatePortalSession)
	billingGroup.GET("/status", ctrls.Payment.GetStatus)
}
