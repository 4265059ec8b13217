package lapse_fx

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"subtrack/internal/config"
	"subtrack/internal/services"
)

var Module = fx.Options(
	fx.Provide(services.NewLapseService),
	fx.Invoke(runSweeper),
)

func runSweeper(lc fx.Lifecycle, cfg *config.Config, lapse services.LapseService) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				lapse.Run(ctx, cfg.Ledger.LapseSweepInterval)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			wg.Wait()
			return nil
		},
	})
}
