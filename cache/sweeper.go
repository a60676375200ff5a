package cache

import (
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
)

const SweeperJobName = "cache_sweeper"

// RegisterSweeper schedules Purge on stores that support it. An empty
// schedule disables the job.
func RegisterSweeper(cronManager types.CronManager, store types.CacheStore, schedule string, logger types.Logger) error {
	if schedule == "" {
		return nil
	}

	purger, ok := store.(types.Purger)
	if !ok {
		logger.Debug("Cache store does not support purge, sweeper disabled")
		return nil
	}

	return cronManager.Add(SweeperJobName, schedule, func() {
		if !store.IsOpen() {
			return
		}

		if removed := purger.Purge(); removed > 0 {
			logger.Debug("Expired cache entries purged", zap.Int("removed", removed))
		}
	})
}
