package optimization

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"menuwise-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedFetcher returns the scripted result once fetch count reaches readyAt.
type scriptedFetcher struct {
	calls   atomic.Int64
	readyAt int64
	errs    int64 // first errs calls fail
}

func (f *scriptedFetcher) ListPendingCandidates(_ context.Context, restaurantID string, _ domain.OptimizationMode) ([]domain.Candidate, error) {
	n := f.calls.Add(1)
	if n <= f.errs {
		return nil, fmt.Errorf("transient store error")
	}
	if n < f.readyAt {
		return nil, nil
	}
	return []domain.Candidate{
		&domain.RevisionCandidate{ID: "cand-1", RestaurantID: restaurantID, Status: domain.CandidatePending},
	}, nil
}

func TestPollerReturnsImmediatelyWhenReady(t *testing.T) {
	fetcher := &scriptedFetcher{readyAt: 1}
	clock := NewManualClock()
	poller := NewPoller(fetcher, clock, DefaultPollInterval, zap.NewNop())

	candidates, err := poller.WaitForCandidates(context.Background(), "rest-1", domain.ModeReviseExisting)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.EqualValues(t, 1, fetcher.calls.Load(), "no ticks needed when results already exist")
}

func TestPollerPollsUntilCandidatesAppear(t *testing.T) {
	fetcher := &scriptedFetcher{readyAt: 3}
	clock := NewManualClock()
	poller := NewPoller(fetcher, clock, DefaultPollInterval, zap.NewNop())

	type result struct {
		candidates []domain.Candidate
		err        error
	}
	done := make(chan result, 1)
	go func() {
		candidates, err := poller.WaitForCandidates(context.Background(), "rest-1", domain.ModeReviseExisting)
		done <- result{candidates, err}
	}()

	clock.Tick()
	clock.Tick()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		require.Len(t, res.candidates, 1)
		assert.EqualValues(t, 3, fetcher.calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not complete after ticks")
	}
}

func TestPollerKeepsPollingThroughFetchErrors(t *testing.T) {
	// No backoff and no attempt cutoff: errors are absorbed and polling continues.
	fetcher := &scriptedFetcher{readyAt: 4, errs: 2}
	clock := NewManualClock()
	poller := NewPoller(fetcher, clock, DefaultPollInterval, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := poller.WaitForCandidates(context.Background(), "rest-1", domain.ModeReviseExisting)
		done <- err
	}()

	clock.Tick()
	clock.Tick()
	clock.Tick()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.EqualValues(t, 4, fetcher.calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not recover from fetch errors")
	}
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	fetcher := &scriptedFetcher{readyAt: 1000}
	clock := NewManualClock()
	poller := NewPoller(fetcher, clock, DefaultPollInterval, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := poller.WaitForCandidates(ctx, "rest-1", domain.ModeReviseExisting)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancellation")
	}
}
