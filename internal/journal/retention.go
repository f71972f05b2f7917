package journal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultPruneInterval is how often Retention deletes expired entries.
const DefaultPruneInterval = time.Hour

// Pruner deletes entries older than a given age.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Logger interface for optional logging.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Retention periodically prunes the journal so it does not grow without bound.
type Retention struct {
	pruner   Pruner
	maxAge   time.Duration
	interval time.Duration
	logger   Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRetention creates a Retention that keeps entries for maxAge.
// An interval of zero uses DefaultPruneInterval.
func NewRetention(pruner Pruner, maxAge, interval time.Duration, logger Logger) (*Retention, error) {
	if pruner == nil {
		return nil, fmt.Errorf("pruner is required")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	return &Retention{
		pruner:   pruner,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Start prunes once immediately, then every interval until ctx is
// cancelled or Stop is called.
func (r *Retention) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.pruneLoop(ctx)
}

// Stop ends the prune loop and waits for it to return.
func (r *Retention) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

func (r *Retention) pruneLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.PruneNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			r.PruneNow(ctx)
		}
	}
}

// PruneNow deletes expired entries once.
func (r *Retention) PruneNow(ctx context.Context) {
	n, err := r.pruner.Prune(ctx, r.maxAge)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("journal prune failed", "error", err)
		}
		return
	}
	if n > 0 && r.logger != nil {
		r.logger.Info("journal pruned", "deleted", n, "retention", r.maxAge.String())
	}
}
