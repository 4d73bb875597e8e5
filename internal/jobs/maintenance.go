package jobs

import (
	"github.com/rs/zerolog"

	"github.com/marketrank/sctr-server/internal/cache"
)

// CacheMaintenance flushes dirty cache namespaces to disk and sweeps
// out expired entries on a schedule, keeping the backing files bounded
// between requests.
type CacheMaintenance struct {
	caches []cache.Store
	log    zerolog.Logger
}

// NewCacheMaintenance creates the cache maintenance job
func NewCacheMaintenance(caches []cache.Store, log zerolog.Logger) *CacheMaintenance {
	return &CacheMaintenance{
		caches: caches,
		log:    log.With().Str("component", "cache_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *CacheMaintenance) Name() string {
	return "cache_maintenance"
}

// Run sweeps and flushes every namespace. Disk trouble is handled
// inside the cache itself, so the job never fails.
func (j *CacheMaintenance) Run() error {
	for _, c := range j.caches {
		removed := c.Sweep()
		if removed > 0 {
			j.log.Debug().
				Str("namespace", c.Name()).
				Int("removed", removed).
				Msg("Swept expired cache entries")
		}

		c.Flush()
	}

	return nil
}
