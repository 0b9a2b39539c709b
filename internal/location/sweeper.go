package location

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredEntryStore removes allow-list entries with no fresh sample.
type ExpiredEntryStore interface {
	DeleteExpiredAllowListEntries(ctx context.Context, cutoff int64) (int64, error)
}

// Sweeper periodically purges allow-list entries whose samples have gone
// stale. The oracle already fails closed on stale samples; the sweeper
// just keeps the table from accumulating dead entries.
type Sweeper struct {
	store    ExpiredEntryStore
	timeout  time.Duration
	interval time.Duration
	clock    func() time.Time
	log      *slog.Logger
}

func NewSweeper(st ExpiredEntryStore, timeout, interval time.Duration, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store:    st,
		timeout:  timeout,
		interval: interval,
		clock:    time.Now,
		log:      log,
	}
}

// Run blocks until ctx is canceled. Call it on its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := s.clock().UTC().Add(-s.timeout).Unix()
	removed, err := s.store.DeleteExpiredAllowListEntries(ctx, cutoff)
	if err != nil {
		s.log.Error("allow list sweep failed", "err", err)
		return
	}
	if removed > 0 {
		s.log.Info("expired allow list entries removed", "count", removed)
	}
}
