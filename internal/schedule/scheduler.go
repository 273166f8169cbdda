// Package schedule dispatches the periodic reconciliation jobs. Each job
// wraps one service scan behind a running guard so overlapping ticks and
// manual triggers never run the same scan concurrently.
package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"fieldops/internal/service"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/logger"
	"fieldops/pkg/metrics"
)

// Job names accepted by RunOnce and the manual trigger endpoint.
const (
	JobWorktime       = "worktime"
	JobLunchAlerts    = "lunch_alerts"
	JobLunchShortfall = "lunch_shortfall"
	JobAbsence        = "absence_detection"
	JobCura           = "cura"
	JobGPS            = "gps"
	JobResponsibility = "report_responsibility"
	JobReminders      = "report_reminders"
)

type runFunc func(ctx context.Context) (service.ScanCounts, error)

type job struct {
	name    string
	run     runFunc
	mu      sync.Mutex
	running bool
	lastRun time.Time
}

type Scheduler struct {
	logger *zap.Logger
	jobs   map[string]*job
	order  []string
}

var (
	schedulerInst *Scheduler
	schedulerOnce sync.Once
)

func Get() *Scheduler {
	schedulerOnce.Do(func() {
		schedulerInst = &Scheduler{
			logger: logger.Logger,
			jobs:   make(map[string]*job),
		}
		schedulerInst.register(JobWorktime, func(ctx context.Context) (service.ScanCounts, error) {
			return service.Worktime().ScanDaily(ctx)
		})
		schedulerInst.register(JobLunchAlerts, func(ctx context.Context) (service.ScanCounts, error) {
			return service.Lunch().ScanAlerts(ctx)
		})
		schedulerInst.register(JobLunchShortfall, func(ctx context.Context) (service.ScanCounts, error) {
			return service.Lunch().ScanShortfalls(ctx)
		})
		schedulerInst.register(JobAbsence, func(ctx context.Context) (service.ScanCounts, error) {
			return service.Absence().ScanUnreported(ctx)
		})
		schedulerInst.register(JobCura, func(ctx context.Context) (service.ScanCounts, error) {
			return service.Cura().ScanDue(ctx)
		})
		schedulerInst.register(JobGPS, func(ctx context.Context) (service.ScanCounts, error) {
			return service.GPS().ScanOffline(ctx)
		})
		schedulerInst.register(JobResponsibility, func(ctx context.Context) (service.ScanCounts, error) {
			return service.Report().AssignResponsibilities(ctx)
		})
		schedulerInst.register(JobReminders, func(ctx context.Context) (service.ScanCounts, error) {
			return service.Report().ScanReminders(ctx)
		})
	})

	return schedulerInst
}

func (s *Scheduler) register(name string, run runFunc) {
	s.jobs[name] = &job{name: name, run: run}
	s.order = append(s.order, name)
}

// Names lists the registered jobs in registration order.
func (s *Scheduler) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

// RunOnce performs one scan of the named job immediately and returns its
// counts. A job already running is not started twice.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (service.ScanCounts, error) {
	j, ok := s.jobs[name]
	if !ok {
		return service.ScanCounts{}, apperrors.JobUnknown
	}

	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		s.logger.Info("Job already running, skipping", zap.String("job", name))
		return service.ScanCounts{}, apperrors.JobRunning
	}
	j.running = true
	j.lastRun = time.Now()
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	started := time.Now()
	counts, err := j.run(ctx)

	metrics.RecordScan(name, started, counts.Processed, counts.Failed)

	if err != nil {
		s.logger.Error("Job run failed",
			zap.String("job", name),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err),
		)
		return counts, err
	}

	s.logger.Info("Job run completed",
		zap.String("job", name),
		zap.Duration("duration", time.Since(started)),
		zap.Int("processed", counts.Processed),
		zap.Int("sent", counts.Sent),
		zap.Int("expired", counts.Expired),
		zap.Int("failed", counts.Failed),
		zap.Int("skipped", counts.Skipped),
	)

	return counts, nil
}
