package application

import (
	"context"
	"log"
	"time"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
)

// Janitor is the retention sweep: it periodically deletes notifications
// that are both past the retention window and already read. Unread rows
// survive regardless of age.
type Janitor struct {
	repo          domain.NotificationRepository
	retentionDays int
	interval      time.Duration
}

func NewJanitor(repo domain.NotificationRepository, retentionDays int, interval time.Duration) *Janitor {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &Janitor{repo: repo, retentionDays: retentionDays, interval: interval}
}

// Run blocks until ctx is cancelled, purging once per interval. A failed
// purge is logged and retried on the next tick.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.PurgeOnce(ctx)
		}
	}
}

// PurgeOnce performs a single retention pass.
func (j *Janitor) PurgeOnce(ctx context.Context) {
	n, err := j.repo.PurgeOlderThan(ctx, j.retentionDays)
	if err != nil {
		log.Printf("[Janitor] purge failed: %v", err)
		return
	}
	if n > 0 {
		purgedRows.Add(float64(n))
		log.Printf("[Janitor] purged %d read notifications older than %d days", n, j.retentionDays)
	}
}
