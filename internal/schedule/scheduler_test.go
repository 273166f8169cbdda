package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldops/internal/service"
	apperrors "fieldops/pkg/errors"
)

func newTestScheduler() *Scheduler {
	return &Scheduler{
		logger: zap.NewNop(),
		jobs:   make(map[string]*job),
	}
}

func TestRunOnceUnknownJob(t *testing.T) {
	s := newTestScheduler()

	_, err := s.RunOnce(context.Background(), "no_such_job")
	require.ErrorIs(t, err, apperrors.JobUnknown)
}

func TestRunOncePassesCountsAndErrors(t *testing.T) {
	s := newTestScheduler()
	s.register("ok", func(ctx context.Context) (service.ScanCounts, error) {
		return service.ScanCounts{Processed: 4, Sent: 3, Skipped: 1}, nil
	})
	scanErr := errors.New("store unavailable")
	s.register("bad", func(ctx context.Context) (service.ScanCounts, error) {
		return service.ScanCounts{Processed: 2, Failed: 2}, scanErr
	})

	counts, err := s.RunOnce(context.Background(), "ok")
	require.NoError(t, err)
	require.Equal(t, 4, counts.Processed)
	require.Equal(t, 3, counts.Sent)

	counts, err = s.RunOnce(context.Background(), "bad")
	require.ErrorIs(t, err, scanErr)
	require.Equal(t, 2, counts.Failed)
}

func TestRunOnceGuardsOverlappingRuns(t *testing.T) {
	s := newTestScheduler()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	s.register("slow", func(ctx context.Context) (service.ScanCounts, error) {
		started <- struct{}{}
		<-release
		return service.ScanCounts{Processed: 1}, nil
	})

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = s.RunOnce(context.Background(), "slow")
	}()

	<-started
	_, err := s.RunOnce(context.Background(), "slow")
	require.ErrorIs(t, err, apperrors.JobRunning)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)

	// The guard releases once the run finishes.
	counts, err := s.RunOnce(context.Background(), "slow")
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
}

func TestNamesPreservesRegistrationOrder(t *testing.T) {
	s := newTestScheduler()
	s.register("first", func(ctx context.Context) (service.ScanCounts, error) { return service.ScanCounts{}, nil })
	s.register("second", func(ctx context.Context) (service.ScanCounts, error) { return service.ScanCounts{}, nil })

	require.Equal(t, []string{"first", "second"}, s.Names())
}
