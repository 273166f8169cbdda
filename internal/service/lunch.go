package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"fieldops/internal/cache"
	"fieldops/internal/model"
	"fieldops/internal/notify"
	"fieldops/internal/payroll"
	"fieldops/pkg/civil"
	"fieldops/pkg/logger"
)

type LunchService struct {
	deps
	xp       *XPService
	worktime *WorktimeService
}

var (
	lunchService *LunchService
	lunchOnce    sync.Once
)

func Lunch() *LunchService {
	lunchOnce.Do(func() {
		lunchService = &LunchService{deps: defaultDeps(), xp: XP(), worktime: Worktime()}
	})

	return lunchService
}

func NewLunchService(d deps) *LunchService {
	return &LunchService{deps: d, xp: NewXPService(d), worktime: NewWorktimeService(d)}
}

// ScheduleAlerts creates the return reminders for a lunch checkout.
func (s *LunchService) ScheduleAlerts(ctx context.Context, session *model.WorkSession) error {
	if session.CheckoutAt == nil {
		return fmt.Errorf("cannot schedule lunch alerts for open session %d", session.ID)
	}

	alerts := make([]model.LunchBreakAlert, 0, len(payroll.LunchAlertOffsetsMinutes))
	for i, offset := range payroll.LunchAlertOffsetsMinutes {
		alerts = append(alerts, model.LunchBreakAlert{
			WorkerID:  session.WorkerID,
			SessionID: session.ID,
			FireAt:    session.CheckoutAt.Add(time.Duration(offset) * time.Minute),
			Sequence:  i + 1,
		})
	}

	if err := s.db.WithContext(ctx).Create(&alerts).Error; err != nil {
		return err
	}

	// Delayed triggers make each alert fire on time; the minute poller
	// stays as the fallback when the broker drops them.
	for _, offset := range payroll.LunchAlertOffsetsMinutes {
		if err := s.gw.ScheduleScan("lunch_alerts", time.Duration(offset)*time.Minute); err != nil {
			logger.Logger.Error("Failed to schedule lunch alert trigger",
				zap.Int64("worker_id", session.WorkerID),
				zap.Int("offset_minutes", offset),
				zap.Error(err),
			)
		}
	}

	logger.Logger.Info("Lunch alerts scheduled",
		zap.Int64("worker_id", session.WorkerID),
		zap.Int64("session_id", session.ID),
		zap.Int("count", len(alerts)),
	)

	return nil
}

// CancelAlertsForWorker removes pending alerts when the worker checks
// back in. Returns how many were cancelled.
func (s *LunchService) CancelAlertsForWorker(ctx context.Context, workerID int64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("worker_id = ? AND sent = ?", workerID, false).
		Delete(&model.LunchBreakAlert{})
	return result.RowsAffected, result.Error
}

// ScanAlerts fires due unsent alerts. Before sending it re-reads the
// store for a check-in newer than the lunch checkout: the user-facing
// return path races this scan, and the fresh read wins.
func (s *LunchService) ScanAlerts(ctx context.Context) (ScanCounts, error) {
	var counts ScanCounts

	var due []model.LunchBreakAlert
	err := s.db.WithContext(ctx).
		Where("sent = ? AND fire_at <= ?", false, s.now()).
		Order("fire_at ASC").
		Find(&due).Error
	if err != nil {
		return counts, err
	}

	for i := range due {
		alert := &due[i]
		counts.Processed++

		if err := s.fireAlert(ctx, alert); err != nil {
			counts.Failed++
			logger.Logger.Error("Failed to process lunch alert",
				zap.Int64("alert_id", alert.ID),
				zap.Int64("worker_id", alert.WorkerID),
				zap.Error(err),
			)
			continue
		}
		if alert.Sent {
			counts.Sent++
		} else {
			counts.Skipped++
		}
	}

	return counts, nil
}

func (s *LunchService) fireAlert(ctx context.Context, alert *model.LunchBreakAlert) error {
	var session model.WorkSession
	if err := s.db.WithContext(ctx).First(&session, alert.SessionID).Error; err != nil {
		return err
	}
	if session.CheckoutAt == nil {
		return fmt.Errorf("lunch alert %d references open session %d", alert.ID, session.ID)
	}

	// Re-verification read: a return check-in newer than the lunch
	// checkout supersedes all alerts for this session.
	var returned int64
	err := s.db.WithContext(ctx).Model(&model.WorkSession{}).
		Where("worker_id = ? AND checkin_at > ?", alert.WorkerID, *session.CheckoutAt).
		Count(&returned).Error
	if err != nil {
		return err
	}
	if returned > 0 {
		return s.db.WithContext(ctx).
			Where("session_id = ? AND sent = ?", alert.SessionID, false).
			Delete(&model.LunchBreakAlert{}).Error
	}

	minutesOut := int(s.now().Sub(*session.CheckoutAt).Minutes())
	if err := s.gw.SendPush(notify.NewLunchReturnAlert(alert.WorkerID, session.ID, minutesOut)); err != nil {
		logger.Logger.Error("Failed to send lunch return alert",
			zap.Int64("worker_id", alert.WorkerID),
			zap.Error(err),
		)
	}

	if err := s.db.WithContext(ctx).Model(alert).Update("sent", true).Error; err != nil {
		return err
	}
	alert.Sent = true

	return nil
}

// ScanShortfalls runs the previous-day shortfall detector: workers whose
// lunch break fell short of the required minimum get the shortfall
// deducted from their last checkout, an XP penalty and a notification.
func (s *LunchService) ScanShortfalls(ctx context.Context) (ScanCounts, error) {
	var counts ScanCounts

	target := s.now().AddDate(0, 0, -1)
	dayStart, dayEnd := civil.DayBounds(target, s.loc)
	dateKey := civil.DateString(target, s.loc)

	var workerIDs []int64
	err := s.db.WithContext(ctx).Model(&model.WorkSession{}).
		Distinct("worker_id").
		Where("checkin_at >= ? AND checkin_at < ? AND checkout_at IS NOT NULL", dayStart, dayEnd).
		Pluck("worker_id", &workerIDs).Error
	if err != nil {
		return counts, err
	}

	for _, workerID := range workerIDs {
		counts.Processed++

		applied, err := s.applyShortfall(ctx, workerID, target, dateKey)
		if err != nil {
			counts.Failed++
			logger.Logger.Error("Failed to apply lunch shortfall",
				zap.Int64("worker_id", workerID),
				zap.String("date", dateKey),
				zap.Error(err),
			)
			continue
		}
		if applied {
			counts.Sent++
		} else {
			counts.Skipped++
		}
	}

	return counts, nil
}

func (s *LunchService) applyShortfall(ctx context.Context, workerID int64, day time.Time, dateKey string) (bool, error) {
	done, err := cache.IsScanMarked(ctx, "lunch_shortfall", dateKey, workerID)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}

	dayStart, dayEnd := civil.DayBounds(day, s.loc)

	var sessions []model.WorkSession
	err = s.db.WithContext(ctx).
		Where("worker_id = ? AND checkin_at >= ? AND checkin_at < ? AND checkout_at IS NOT NULL", workerID, dayStart, dayEnd).
		Order("checkin_at ASC").
		Find(&sessions).Error
	if err != nil {
		return false, err
	}
	if len(sessions) == 0 {
		return false, nil
	}

	workedMinutes, breakMinutes := DayMinutes(sessions)
	deduction, penalize := payroll.LunchDeduction(float64(workedMinutes)/60, breakMinutes)
	if !penalize {
		if err := cache.MarkScan(ctx, "lunch_shortfall", dateKey, workerID); err != nil {
			return false, err
		}
		return false, nil
	}

	last := &sessions[len(sessions)-1]
	newCheckout := last.CheckoutAt.Add(-time.Duration(deduction) * time.Minute)
	if newCheckout.Before(last.CheckinAt) {
		// A deduction must never place checkout before check-in. Skip
		// this worker and leave the marker unset so a fixed rule or
		// manual correction can retry.
		return false, fmt.Errorf("deduction of %d min would invert session %d", deduction, last.ID)
	}

	if err := s.db.WithContext(ctx).Model(last).Update("checkout_at", newCheckout).Error; err != nil {
		return false, err
	}
	last.CheckoutAt = &newCheckout

	if err := s.xp.Adjust(ctx, nil, workerID, -payroll.LunchShortfallPenalty, model.XPReasonLunchShortfall,
		fmt.Sprintf("lunch shortfall on %s", dateKey)); err != nil {
		return false, err
	}

	if err := cache.MarkScan(ctx, "lunch_shortfall", dateKey, workerID); err != nil {
		return false, err
	}

	// The nightly aggregation already ran for this day with the original
	// checkout, so the stored summary must be recomputed from the
	// shortened sessions.
	if _, err := s.worktime.AggregateDay(ctx, workerID, day); err != nil {
		logger.Logger.Error("Failed to re-aggregate summary after shortfall",
			zap.Int64("worker_id", workerID),
			zap.String("date", dateKey),
			zap.Error(err),
		)
	}

	if err := s.gw.SendPush(notify.NewLunchShortfall(workerID, dateKey, deduction, payroll.LunchShortfallPenalty)); err != nil {
		logger.Logger.Error("Failed to send lunch shortfall notification",
			zap.Int64("worker_id", workerID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Lunch shortfall applied",
		zap.Int64("worker_id", workerID),
		zap.String("date", dateKey),
		zap.Int("deduction_minutes", deduction),
	)

	return true, nil
}
