package metrics

import (
	"github.com/saiset-co/sai-authchain/types"
)

func NewManager(config *types.MetricsConfig, logger types.Logger) (types.MetricsManager, error) {
	if config == nil || !config.Enabled {
		logger.Debug("Metrics disabled")
		return NoopMetrics{}, nil
	}

	return NewPrometheusMetrics(config, logger)
}
