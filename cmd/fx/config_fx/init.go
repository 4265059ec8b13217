package config_fx

import (
	"go.uber.org/fx"

	"subtrack/internal/config"
	"subtrack/pkg/utils"
)

var Module = fx.Provide(config.Load, provideCookieOptions)

func provideCookieOptions(cfg *config.Config) utils.CookieOptions {
	return utils.CookieOptions{
		Secure: cfg.Server.CookieSecure,
		Domain: cfg.Server.CookieDomain,
	}
}
