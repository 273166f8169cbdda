package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"fieldops/internal/model"
	"fieldops/internal/payroll"
	"fieldops/pkg/civil"
	"fieldops/pkg/logger"
)

type PunctualityService struct {
	deps
	xp *XPService
}

var (
	punctualityService *PunctualityService
	punctualityOnce    sync.Once
)

func Punctuality() *PunctualityService {
	punctualityOnce.Do(func() {
		punctualityService = &PunctualityService{deps: defaultDeps(), xp: XP()}
	})

	return punctualityService
}

func NewPunctualityService(d deps) *PunctualityService {
	return &PunctualityService{deps: d, xp: NewXPService(d)}
}

// PunctualityOutcome reports what the first check-in of the day did to
// the worker's streak state.
type PunctualityOutcome struct {
	Evaluated  bool
	Punctual   bool
	Streak     int
	Multiplier float64
	XPAwarded  int64
}

// HandleCheckin runs the streak state machine for a check-in. Only the
// first check-in of the civil day is evaluated; later ones return
// Evaluated=false.
func (s *PunctualityService) HandleCheckin(ctx context.Context, worker *model.Worker, project *model.Project, checkinAt time.Time) (PunctualityOutcome, error) {
	first, err := s.isFirstOfDay(ctx, worker.ID, checkinAt)
	if err != nil {
		return PunctualityOutcome{}, err
	}
	if !first {
		return PunctualityOutcome{Evaluated: false, Streak: worker.PunctualityStreak, Multiplier: worker.PunctualityMultiplier}, nil
	}

	punctual := s.isPunctual(project, checkinAt)
	if !punctual {
		return s.recordLate(ctx, worker)
	}

	return s.recordPunctual(ctx, worker, checkinAt)
}

// isFirstOfDay checks for an earlier session on the same civil day.
func (s *PunctualityService) isFirstOfDay(ctx context.Context, workerID int64, checkinAt time.Time) (bool, error) {
	dayStart, _ := civil.DayBounds(checkinAt, s.loc)

	var count int64
	err := s.db.WithContext(ctx).Model(&model.WorkSession{}).
		Where("worker_id = ? AND checkin_at >= ? AND checkin_at < ?", workerID, dayStart, checkinAt).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// isPunctual compares the check-in to the project's scheduled start. A
// project with no schedule counts as punctual by default.
func (s *PunctualityService) isPunctual(project *model.Project, checkinAt time.Time) bool {
	if project == nil || project.WorkStartTime == "" {
		return true
	}

	var hour, minute int
	if _, err := fmt.Sscanf(project.WorkStartTime, "%d:%d", &hour, &minute); err != nil {
		logger.Logger.Warn("Unparseable project work start time, treating check-in as punctual",
			zap.Int64("project_id", project.ID),
			zap.String("work_start_time", project.WorkStartTime),
		)
		return true
	}

	start := civil.AtClock(checkinAt, s.loc, hour, minute)
	lateBy := checkinAt.Sub(start)

	return lateBy <= payroll.PunctualityToleranceMinutes*time.Minute
}

func (s *PunctualityService) recordLate(ctx context.Context, worker *model.Worker) (PunctualityOutcome, error) {
	err := s.db.WithContext(ctx).Model(worker).Updates(map[string]interface{}{
		"punctuality_streak":     0,
		"punctuality_multiplier": 1.0,
	}).Error
	if err != nil {
		return PunctualityOutcome{}, err
	}

	worker.PunctualityStreak = 0
	worker.PunctualityMultiplier = 1.0

	return PunctualityOutcome{Evaluated: true, Punctual: false, Streak: 0, Multiplier: 1.0}, nil
}

func (s *PunctualityService) recordPunctual(ctx context.Context, worker *model.Worker, checkinAt time.Time) (PunctualityOutcome, error) {
	// Already counted today: idempotent no-op.
	if worker.LastPunctualDate != nil && civil.SameDay(*worker.LastPunctualDate, checkinAt, s.loc) {
		return PunctualityOutcome{Evaluated: true, Punctual: true, Streak: worker.PunctualityStreak, Multiplier: worker.PunctualityMultiplier}, nil
	}

	streak := 1
	if worker.LastPunctualDate != nil && civil.IsYesterday(*worker.LastPunctualDate, checkinAt, s.loc) {
		streak = worker.PunctualityStreak + 1
	}

	multiplier := math.Min(1+float64(streak)*0.1, payroll.MaxPunctualityMultiplier)
	today := civil.Date(checkinAt, s.loc)

	err := s.db.WithContext(ctx).Model(worker).Updates(map[string]interface{}{
		"punctuality_streak":     streak,
		"punctuality_multiplier": multiplier,
		"last_punctual_date":     today,
	}).Error
	if err != nil {
		return PunctualityOutcome{}, err
	}

	worker.PunctualityStreak = streak
	worker.PunctualityMultiplier = multiplier
	worker.LastPunctualDate = &today

	if err := s.xp.Adjust(ctx, nil, worker.ID, payroll.PunctualityXPReward, model.XPReasonPunctuality, "punctual check-in"); err != nil {
		return PunctualityOutcome{}, err
	}

	logger.Logger.Info("Punctual check-in recorded",
		zap.Int64("worker_id", worker.ID),
		zap.Int("streak", streak),
		zap.Float64("multiplier", multiplier),
	)

	return PunctualityOutcome{
		Evaluated:  true,
		Punctual:   true,
		Streak:     streak,
		Multiplier: multiplier,
		XPAwarded:  payroll.PunctualityXPReward,
	}, nil
}
