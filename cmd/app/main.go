package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"subtrack/cmd/fx/account_fx"
	"subtrack/cmd/fx/config_fx"
	"subtrack/cmd/fx/controllers_fx"
	"subtrack/cmd/fx/db_fx"
	"subtrack/cmd/fx/lapse_fx"
	"subtrack/cmd/fx/ledger_fx"
	"subtrack/cmd/fx/logger_fx"
	"subtrack/cmd/fx/memcache_fx"
	"subtrack/cmd/fx/metrics_fx"
	"subtrack/cmd/fx/payment_service_fx"
	"subtrack/cmd/fx/session_fx"
	"subtrack/cmd/fx/suggestion_fx"
	"subtrack/internal/api"
	"subtrack/internal/api/controllers"
	"subtrack/internal/config"
	"subtrack/pkg/metrics"
	"subtrack/pkg/middleware"
)

func main() {
	app := fx.New(
		config_fx.Module,
		logger_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		metrics_fx.Module,
		account_fx.Module,
		session_fx.Module,
		ledger_fx.Module,
		suggestion_fx.Module,
		payment_service_fx.Module,
		lapse_fx.Module,
		controllers_fx.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("starting HTTP server", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

func ProvideRouter(
	cfg *config.Config,
	accountController *controllers.AccountController,
	subscriptionController *controllers.SubscriptionController,
	suggestionController *controllers.SuggestionController,
	ingestController *controllers.IngestController,
	paymentController *controllers.PaymentController,
	healthController *controllers.HealthController,
	guard *middleware.SessionGuard,
	m *metrics.Collector,
	log *zap.Logger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	return api.NewRouter(api.Controllers{
		Account:      accountController,
		Subscription: subscriptionController,
		Suggestion:   suggestionController,
		Ingest:       ingestController,
		Payment:      paymentController,
		Health:       healthController,
	}, guard, m, log, api.RouterOptions{
		CORSOrigin:   cfg.Server.CORSOrigin,
		MetricsToken: cfg.Server.MetricsToken,
	})
}
