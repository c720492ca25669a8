package ingest

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/services"
	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// ErrSourceClosed is returned when a source stops for a reason other than
// context cancellation.
var ErrSourceClosed = errors.New("ingest source closed")

// ExtendFunc is called from the producer goroutine after samples were
// appended. Implementations hand the new extent to the UI goroutine.
type ExtendFunc func(start, end float64)

// Source is a producer that appends to a store until ctx is cancelled.
type Source interface {
	Run(ctx context.Context) error
	Stats() services.ReadStats
}

// appender is the part shared by all sources: append a batch, keep the
// counters, announce the new extent.
type appender struct {
	logger   *zap.Logger
	store    *signal.Store
	onExtend ExtendFunc

	mu    sync.Mutex
	stats services.ReadStats
}

func (a *appender) deliver(samples []schema.Sample, parsed services.ReadStats) {
	res := a.store.Append(samples)
	parsed.Accepted -= res.Dropped
	parsed.Dropped += res.Dropped

	a.mu.Lock()
	a.stats.Add(parsed)
	a.mu.Unlock()

	if parsed.Dropped+parsed.OutOfRange > 0 {
		a.logger.Debug("Rows dropped",
			zap.Int("dropped", parsed.Dropped),
			zap.Int("out_of_range", parsed.OutOfRange))
	}
	if res.Accepted == 0 {
		return
	}
	start, end := a.store.Snapshot().Extent()
	if a.onExtend != nil {
		a.onExtend(start, end)
	}
}

func (a *appender) Stats() services.ReadStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
