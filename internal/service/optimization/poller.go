package optimization

import (
	"context"
	"time"

	"go.uber.org/zap"

	"menuwise-backend/internal/domain"
)

// DefaultPollInterval is the fixed delay between candidate checks.
const DefaultPollInterval = 5 * time.Second

// Clock abstracts ticker creation so tests can drive the poller with a manual
// clock instead of real time.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker is the minimal ticker surface the poller needs.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type realClock struct{}

// RealClock returns a Clock backed by the wall clock.
func RealClock() Clock { return realClock{} }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(d)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (t *realTicker) Chan() <-chan time.Time { return t.ticker.C }
func (t *realTicker) Stop()                  { t.ticker.Stop() }

// ManualClock is a test clock whose tickers fire only when Tick is called.
type ManualClock struct {
	ch chan time.Time
}

// NewManualClock creates a manual clock.
func NewManualClock() *ManualClock {
	return &ManualClock{ch: make(chan time.Time, 16)}
}

// Tick advances the clock by one interval, firing every ticker created from it.
func (c *ManualClock) Tick() {
	c.ch <- time.Now()
}

func (c *ManualClock) NewTicker(time.Duration) Ticker {
	return &manualTicker{ch: c.ch}
}

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) Chan() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()                  {}

// CandidateFetcher is the read path the poller watches, satisfied by Service.
type CandidateFetcher interface {
	ListPendingCandidates(ctx context.Context, restaurantID string, mode domain.OptimizationMode) ([]domain.Candidate, error)
}

// Poller watches for the appearance of pending candidates after a submission.
// It polls on a fixed interval with no backoff and no attempt cutoff; it stops
// only when candidates appear or ctx is cancelled. Cancelling the poller never
// cancels the server-side generation job.
type Poller struct {
	fetcher  CandidateFetcher
	clock    Clock
	interval time.Duration
	logger   *zap.Logger
}

// NewPoller creates a poller over the given fetcher. A nil clock means wall
// time; a non-positive interval means DefaultPollInterval.
func NewPoller(fetcher CandidateFetcher, clock Clock, interval time.Duration, logger *zap.Logger) *Poller {
	if clock == nil {
		clock = RealClock()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		fetcher:  fetcher,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// WaitForCandidates polls until at least one pending candidate exists for the
// restaurant and mode. Fetch errors are logged and polling continues: a
// transient read failure is indistinguishable from "not ready yet" by contract.
func (p *Poller) WaitForCandidates(ctx context.Context, restaurantID string, mode domain.OptimizationMode) ([]domain.Candidate, error) {
	if candidates, ok := p.check(ctx, restaurantID, mode); ok {
		return candidates, nil
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.Chan():
			if candidates, ok := p.check(ctx, restaurantID, mode); ok {
				return candidates, nil
			}
		}
	}
}

func (p *Poller) check(ctx context.Context, restaurantID string, mode domain.OptimizationMode) ([]domain.Candidate, bool) {
	candidates, err := p.fetcher.ListPendingCandidates(ctx, restaurantID, mode)
	if err != nil {
		p.logger.Warn("candidate poll failed", zap.Error(err))
		return nil, false
	}
	return candidates, len(candidates) > 0
}
