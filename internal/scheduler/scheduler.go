package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/blackshadow44/Substanz/internal/metrics"
	"github.com/blackshadow44/Substanz/internal/store"
)

// Scheduler periodically writes the JSON snapshot and a rotated backup so a
// corrupted database never costs more than one interval of data.
type Scheduler struct {
	store     *store.Store
	dataDir   string
	backupDir string
	interval  time.Duration
}

const defaultInterval = 5 * time.Minute

func New(s *store.Store, dataDir, backupDir string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{store: s, dataDir: dataDir, backupDir: backupDir, interval: interval}
}

// Run blocks until ctx is cancelled, snapshotting on every tick. A final
// snapshot is attempted on shutdown.
func (sc *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := sc.store.SaveSnapshot(sc.dataDir, time.Now()); err != nil {
				log.Printf("scheduler: final snapshot failed: %v", err)
			}
			return
		case <-ticker.C:
			sc.runOnce(ctx)
		}
	}
}

func (sc *Scheduler) runOnce(ctx context.Context) {
	now := time.Now()

	if err := sc.store.SaveSnapshot(sc.dataDir, now); err != nil {
		log.Printf("scheduler: snapshot failed: %v", err)
	}

	// Backups retry with exponential backoff; a busy database or slow disk
	// should not lose the rotation slot.
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	err := backoff.Retry(func() error {
		return sc.store.Backup(sc.backupDir, now)
	}, policy)
	if err != nil {
		log.Printf("scheduler: backup failed: %v", err)
		return
	}
	metrics.BackupsCreated.Inc()
}
