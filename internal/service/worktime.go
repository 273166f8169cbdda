package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fieldops/internal/model"
	"fieldops/internal/payroll"
	"fieldops/pkg/civil"
	"fieldops/pkg/logger"
)

type WorktimeService struct {
	deps
}

var (
	worktimeService *WorktimeService
	worktimeOnce    sync.Once
)

func Worktime() *WorktimeService {
	worktimeOnce.Do(func() {
		worktimeService = &WorktimeService{deps: defaultDeps()}
	})

	return worktimeService
}

func NewWorktimeService(d deps) *WorktimeService {
	return &WorktimeService{deps: d}
}

// dayBuckets is the classification of one worker-day into pay tiers.
type dayBuckets struct {
	NormalMinutes         int
	OvertimeMinutes       int
	TravelMinutes         int
	TravelOvertimeMinutes int
	TransitMinutes        int
	WorkedMinutes         int
	BreakMinutes          int
}

// DayMinutes returns (worked, lunch break) minutes for one day's ordered
// closed sessions. The break is the gap from a lunch checkout to the
// next check-in, capped so an unreturned worker does not bank a giant
// break.
func DayMinutes(sessions []model.WorkSession) (int, int) {
	worked, breaks := 0, 0

	var lastLunchCheckout *time.Time
	for i := range sessions {
		sess := &sessions[i]
		if sess.CheckoutAt == nil {
			continue
		}

		if lastLunchCheckout != nil {
			gap := int(sess.CheckinAt.Sub(*lastLunchCheckout).Minutes())
			if gap > payroll.MaxCountedBreakMinutes {
				gap = payroll.MaxCountedBreakMinutes
			}
			if gap > 0 {
				breaks += gap
			}
			lastLunchCheckout = nil
		}

		worked += int(sess.CheckoutAt.Sub(sess.CheckinAt).Minutes())

		if sess.CheckoutReason != nil && *sess.CheckoutReason == model.CheckoutReasonLunch {
			lastLunchCheckout = sess.CheckoutAt
		}
	}

	return worked, breaks
}

// classify buckets one day's sessions by checkout reason and project
// travel mode. Sessions closed for lunch are not worked time: only the
// gap from their checkout to the next check-in counts, as break minutes.
// Projects maps project ID to its travel-mode flag.
func classify(sessions []model.WorkSession, travelMode map[int64]bool) dayBuckets {
	var b dayBuckets
	normalProject, travelProject := 0, 0

	var lastLunchCheckout *time.Time
	for i := range sessions {
		sess := &sessions[i]
		if sess.CheckoutAt == nil {
			continue
		}

		reason := model.CheckoutReasonEndOfShift
		if sess.CheckoutReason != nil {
			reason = *sess.CheckoutReason
		}
		if reason == model.CheckoutReasonLunch {
			lastLunchCheckout = sess.CheckoutAt
			continue
		}

		if lastLunchCheckout != nil {
			gap := int(sess.CheckinAt.Sub(*lastLunchCheckout).Minutes())
			if gap > payroll.MaxCountedBreakMinutes {
				gap = payroll.MaxCountedBreakMinutes
			}
			if gap > 0 {
				b.BreakMinutes += gap
			}
			lastLunchCheckout = nil
		}

		minutes := int(sess.CheckoutAt.Sub(sess.CheckinAt).Minutes())
		b.WorkedMinutes += minutes

		switch reason {
		case model.CheckoutReasonOtherProject, model.CheckoutReasonSupplyPurchase:
			b.TransitMinutes += minutes
		default:
			if travelMode[sess.ProjectID] {
				travelProject += minutes
			} else {
				normalProject += minutes
			}
		}
	}

	b.NormalMinutes, b.OvertimeMinutes = payroll.SplitByOvertime(normalProject)
	b.TravelMinutes, b.TravelOvertimeMinutes = payroll.SplitByOvertime(travelProject)

	return b
}

// AggregateDay recomputes one worker's summary for one civil day. The
// result is a pure function of the day's closed sessions, so re-running
// it after a correction yields the corrected summary.
func (s *WorktimeService) AggregateDay(ctx context.Context, workerID int64, day time.Time) (*model.DailyWorkSummary, error) {
	dayStart, dayEnd := civil.DayBounds(day, s.loc)

	var sessions []model.WorkSession
	err := s.db.WithContext(ctx).
		Where("worker_id = ? AND checkin_at >= ? AND checkin_at < ?", workerID, dayStart, dayEnd).
		Order("checkin_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	var worker model.Worker
	if err := s.db.WithContext(ctx).First(&worker, workerID).Error; err != nil {
		return nil, err
	}

	travelMode, err := s.loadTravelModes(ctx, sessions)
	if err != nil {
		return nil, err
	}

	b := classify(sessions, travelMode)

	deduction, _ := payroll.LunchDeduction(float64(b.WorkedMinutes)/60, b.BreakMinutes)
	payment := payroll.ComputePayment(worker.Role,
		b.NormalMinutes, b.OvertimeMinutes,
		b.TravelMinutes, b.TravelOvertimeMinutes,
		b.TransitMinutes,
	)

	summary := model.DailyWorkSummary{
		WorkerID:              workerID,
		SummaryDate:           dayStart,
		NormalMinutes:         b.NormalMinutes,
		OvertimeMinutes:       b.OvertimeMinutes,
		TravelMinutes:         b.TravelMinutes,
		TravelOvertimeMinutes: b.TravelOvertimeMinutes,
		TransitMinutes:        b.TransitMinutes,
		LunchBreakMinutes:     b.BreakMinutes,
		LunchDeductionMinutes: deduction,
		PaymentTotal:          payment.Total,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "worker_id"}, {Name: "summary_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"normal_minutes", "overtime_minutes", "travel_minutes",
			"travel_overtime_minutes", "transit_minutes",
			"lunch_break_minutes", "lunch_deduction_minutes",
			"payment_total", "updated_at",
		}),
	}).Create(&summary).Error
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Daily summary upserted",
		zap.Int64("worker_id", workerID),
		zap.String("date", civil.DateString(day, s.loc)),
		zap.Int("worked_minutes", b.WorkedMinutes),
		zap.Float64("payment_total", payment.Total),
	)

	return &summary, nil
}

// ScanDaily aggregates every worker with sessions on the target day,
// normally today at end of day.
func (s *WorktimeService) ScanDaily(ctx context.Context) (ScanCounts, error) {
	return s.AggregateAll(ctx, s.now())
}

// AggregateAll runs AggregateDay for each worker with check-ins that day.
// Per-worker failures are logged and do not stop the batch.
func (s *WorktimeService) AggregateAll(ctx context.Context, day time.Time) (ScanCounts, error) {
	var counts ScanCounts

	dayStart, dayEnd := civil.DayBounds(day, s.loc)

	var workerIDs []int64
	err := s.db.WithContext(ctx).Model(&model.WorkSession{}).
		Distinct("worker_id").
		Where("checkin_at >= ? AND checkin_at < ?", dayStart, dayEnd).
		Pluck("worker_id", &workerIDs).Error
	if err != nil {
		return counts, err
	}

	for _, workerID := range workerIDs {
		counts.Processed++
		if _, err := s.AggregateDay(ctx, workerID, day); err != nil {
			counts.Failed++
			logger.Logger.Error("Failed to aggregate daily worktime",
				zap.Int64("worker_id", workerID),
				zap.String("date", civil.DateString(day, s.loc)),
				zap.Error(err),
			)
			continue
		}
		counts.Sent++
	}

	return counts, nil
}

// Summary returns the stored daily summary, nil when none exists.
func (s *WorktimeService) Summary(ctx context.Context, workerID int64, day time.Time) (*model.DailyWorkSummary, error) {
	dayStart, _ := civil.DayBounds(day, s.loc)

	var summary model.DailyWorkSummary
	err := s.db.WithContext(ctx).
		Where("worker_id = ? AND summary_date = ?", workerID, dayStart).
		First(&summary).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

func (s *WorktimeService) loadTravelModes(ctx context.Context, sessions []model.WorkSession) (map[int64]bool, error) {
	ids := make([]int64, 0, len(sessions))
	seen := make(map[int64]bool, len(sessions))
	for i := range sessions {
		if !seen[sessions[i].ProjectID] {
			seen[sessions[i].ProjectID] = true
			ids = append(ids, sessions[i].ProjectID)
		}
	}

	var projects []model.Project
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, err
	}

	travelMode := make(map[int64]bool, len(projects))
	for i := range projects {
		travelMode[projects[i].ID] = projects[i].TravelMode
	}
	return travelMode, nil
}
