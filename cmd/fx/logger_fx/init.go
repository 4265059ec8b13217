package logger_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"subtrack/internal/infra"
)

var Module = fx.Options(
	fx.Provide(infra.NewLogger),
	fx.Invoke(syncOnStop),
)

func syncOnStop(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}
