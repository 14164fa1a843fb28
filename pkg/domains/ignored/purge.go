package ignored

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PurgeJob removes expired suppression rows on an interval. The expiry-aware
// IsIgnored check never depends on it; the job only keeps the table small.
type PurgeJob struct {
	service  Service
	interval time.Duration
	done     chan struct{}
}

func NewPurgeJob(service Service, interval time.Duration) *PurgeJob {
	return &PurgeJob{
		service:  service,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *PurgeJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("ignored-contact purge job started")
}

func (j *PurgeJob) Stop() {
	close(j.done)
	log.Info().Msg("ignored-contact purge job stopped")
}

func (j *PurgeJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.purge()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.purge()
		}
	}
}

func (j *PurgeJob) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := j.service.Purge(ctx, ScopeExpired)
	if err != nil {
		log.Error().Err(err).Msg("failed to purge expired ignored contacts")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("purged expired ignored contacts")
	}
}
