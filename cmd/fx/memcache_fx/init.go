package memcache_fx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	mem "subtrack/pkg/memcache"
)

const purgeInterval = 10 * time.Minute

var Module = fx.Provide(provideConsumedTokens)

// provideConsumedTokens also purges expired token ids in the background.
func provideConsumedTokens(lc fx.Lifecycle, log *zap.Logger) mem.ConsumedTokenStore {
	store := mem.NewConsumedTokens()
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(purgeInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if n := store.Purge(); n > 0 {
							log.Debug("purged consumed refresh ids", zap.Int("count", n))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return store
}
