package session_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"subtrack/internal/config"
	"subtrack/internal/repositories"
	"subtrack/internal/services"
	mem "subtrack/pkg/memcache"
	"subtrack/pkg/metrics"
	"subtrack/pkg/middleware"
	"subtrack/pkg/utils"
)

var Module = fx.Provide(
	provideTokenCodec, provideSessionService, middleware.NewSessionGuard)

func provideTokenCodec(cfg *config.Config) (*utils.TokenCodec, error) {
	return utils.NewTokenCodec(utils.TokenCodecConfig{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
}

func provideSessionService(
	cfg *config.Config,
	codec *utils.TokenCodec,
	users repositories.UserRepository,
	consumed mem.ConsumedTokenStore,
	m *metrics.Collector,
	log *zap.Logger,
) services.SessionService {
	return services.NewSessionService(codec, users, consumed,
		services.SessionOptions{ReuseDetection: cfg.Auth.RefreshReuseDetection}, m, log)
}
