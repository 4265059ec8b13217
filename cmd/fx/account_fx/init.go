package account_fx

import (
	"go.uber.org/fx"

	"subtrack/internal/repositories"
	"subtrack/internal/services"
)

var Module = fx.Provide(
	services.NewAccountService, repositories.NewUserRepository)
