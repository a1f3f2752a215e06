package staleserve

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/staleserve/staleserve/store"
)

// janitor periodically evicts entries whose age exceeds the server
// TTL. It runs decoupled from request serving; the sweep interval
// equals the TTL, so an entry is evicted at most one interval after
// it went stale.
type janitor struct {
	store    store.Store
	interval time.Duration
	log      zerolog.Logger
	done     chan struct{}
}

func newJanitor(s store.Store, interval time.Duration, logger zerolog.Logger) *janitor {
	return &janitor{
		store:    s,
		interval: interval,
		log:      logger,
		done:     make(chan struct{}),
	}
}

func (j *janitor) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.done:
			return
		}
	}
}

func (j *janitor) sweep() {
	evicted, err := j.store.Evict(time.Now().Add(-j.interval))
	if err != nil {
		j.log.Error().Err(err).Msg("Could not sweep expired entries")
		return
	}
	if evicted > 0 {
		entriesEvicted.Add(float64(evicted))
		j.log.Trace().Int("evicted", evicted).Msg("Swept expired entries")
	}
}

func (j *janitor) stop() {
	close(j.done)
}
