package metrics_fx

import (
	"go.uber.org/fx"

	"subtrack/pkg/metrics"
)

var Module = fx.Provide(metrics.NewCollector)
