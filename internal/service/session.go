package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/geo"
	"fieldops/pkg/logger"
	"fieldops/pkg/metrics"

	"fieldops/internal/model"
	"fieldops/internal/model/dto"
)

type SessionService struct {
	deps
	punctuality *PunctualityService
	lunch       *LunchService
	report      *ReportService
	gps         *GPSService
}

var (
	sessionService *SessionService
	sessionOnce    sync.Once
)

func Session() *SessionService {
	sessionOnce.Do(func() {
		sessionService = &SessionService{
			deps:        defaultDeps(),
			punctuality: Punctuality(),
			lunch:       Lunch(),
			report:      Report(),
			gps:         GPS(),
		}
	})

	return sessionService
}

func NewSessionService(d deps) *SessionService {
	return &SessionService{
		deps:        d,
		punctuality: NewPunctualityService(d),
		lunch:       NewLunchService(d),
		report:      NewReportService(d),
		gps:         NewGPSService(d),
	}
}

// Checkin opens a work session. Distance from the site is flagged, never
// rejected. A return check-in cancels pending lunch alerts, and the first
// check-in of the day runs the punctuality tracker.
func (s *SessionService) Checkin(ctx context.Context, req dto.CheckinRequest) (*dto.CheckinResponse, error) {
	worker, err := s.loadActiveWorker(ctx, req.WorkerID)
	if err != nil {
		return nil, err
	}

	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ProjectNotFound
		}
		return nil, err
	}
	if project.Status != model.ProjectStatusActive {
		return nil, apperrors.ProjectInactive
	}

	var assignment model.ProjectAssignment
	err = s.db.WithContext(ctx).
		Where("project_id = ? AND worker_id = ? AND active = ?", project.ID, worker.ID, true).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WorkerNotAssigned
		}
		return nil, err
	}

	var open model.WorkSession
	err = s.db.WithContext(ctx).
		Where("worker_id = ? AND checkout_at IS NULL", worker.ID).
		First(&open).Error
	if err == nil {
		return nil, apperrors.SessionAlreadyOpen
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.now()
	distance := geo.HaversineMeters(project.Latitude, project.Longitude, req.Latitude, req.Longitude)
	distant := distance > geo.DistantThresholdMeters
	outOfArea := !geo.WithinRadius(project.Latitude, project.Longitude, req.Latitude, req.Longitude, project.RadiusMeters)

	session := model.WorkSession{
		WorkerID:         worker.ID,
		ProjectID:        project.ID,
		CheckinAt:        now,
		CheckinDistant:   distant,
		CheckinOutOfArea: outOfArea,
		CheckinLatitude:  req.Latitude,
		CheckinLongitude: req.Longitude,
		CheckinDistanceM: distance,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}

	metrics.RecordCheckin(distant)

	cancelled, err := s.lunch.CancelAlertsForWorker(ctx, worker.ID)
	if err != nil {
		logger.Logger.Error("Failed to cancel lunch alerts on return check-in",
			zap.Int64("worker_id", worker.ID),
			zap.Error(err),
		)
	}

	outcome, err := s.punctuality.HandleCheckin(ctx, worker, &project, now)
	if err != nil {
		logger.Logger.Error("Punctuality tracking failed",
			zap.Int64("worker_id", worker.ID),
			zap.Error(err),
		)
	}

	resp := &dto.CheckinResponse{
		CheckinAt:       now,
		SessionID:       session.ID,
		DistanceMeters:  distance,
		Distant:         distant,
		OutOfArea:       outOfArea,
		FirstOfDay:      outcome.Evaluated,
		CancelledAlerts: cancelled,
	}
	if outcome.Evaluated {
		punctual := outcome.Punctual
		resp.Punctual = &punctual
		resp.Streak = outcome.Streak
		resp.Multiplier = outcome.Multiplier
		resp.XPAwarded = outcome.XPAwarded
	}

	logger.Logger.Info("Worker checked in",
		zap.Int64("worker_id", worker.ID),
		zap.Int64("project_id", project.ID),
		zap.Float64("distance_m", distance),
		zap.Bool("distant", distant),
		zap.Bool("out_of_area", outOfArea),
	)

	return resp, nil
}

// Checkout closes the open session with the given reason. A lunch
// checkout schedules return alerts; an end-of-shift checkout schedules
// the report reminder.
func (s *SessionService) Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	worker, err := s.loadActiveWorker(ctx, req.WorkerID)
	if err != nil {
		return nil, err
	}

	reason := model.CheckoutReason(req.Reason)
	if !reason.Valid() {
		return nil, apperrors.CheckoutReasonInvalid
	}

	var session model.WorkSession
	err = s.db.WithContext(ctx).
		Where("worker_id = ? AND checkout_at IS NULL", worker.ID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.SessionNotOpen
		}
		return nil, err
	}

	now := s.now()
	if now.Before(session.CheckinAt) {
		return nil, apperrors.CheckoutBeforeCheckin
	}

	err = s.db.WithContext(ctx).Model(&session).Updates(map[string]interface{}{
		"checkout_at":     now,
		"checkout_reason": reason,
	}).Error
	if err != nil {
		return nil, err
	}
	session.CheckoutAt = &now
	session.CheckoutReason = &reason

	metrics.RecordCheckout(string(reason), false)

	switch reason {
	case model.CheckoutReasonLunch:
		if err := s.lunch.ScheduleAlerts(ctx, &session); err != nil {
			logger.Logger.Error("Failed to schedule lunch alerts",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
		}
	case model.CheckoutReasonEndOfShift:
		if err := s.report.ScheduleReminder(ctx, &session); err != nil {
			logger.Logger.Error("Failed to schedule report reminder",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
		}
	}

	logger.Logger.Info("Worker checked out",
		zap.Int64("worker_id", worker.ID),
		zap.Int64("session_id", session.ID),
		zap.String("reason", string(reason)),
	)

	return &dto.CheckoutResponse{
		CheckoutAt: now,
		SessionID:  session.ID,
		Reason:     string(reason),
		Duration:   now.Sub(session.CheckinAt).Round(time.Second).String(),
	}, nil
}

// ReportLocation forwards a device location status report to the GPS-loss
// monitor and records the latest position.
func (s *SessionService) ReportLocation(ctx context.Context, req dto.LocationReportRequest) (*dto.LocationReportResponse, error) {
	worker, err := s.loadActiveWorker(ctx, req.WorkerID)
	if err != nil {
		return nil, err
	}

	status := model.LocationStatus(req.Status)
	if !status.Valid() {
		return nil, apperrors.LocationStatusInvalid
	}

	offSince, err := s.gps.HandleReport(ctx, worker, status, req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	return &dto.LocationReportResponse{
		OffSince: offSince,
		Status:   string(status),
	}, nil
}

// History lists a worker's sessions inside an optional date range.
func (s *SessionService) History(ctx context.Context, workerID int64, q dto.SessionHistoryQuery) ([]dto.SessionItem, error) {
	tx := s.db.WithContext(ctx).Model(&model.WorkSession{}).Where("worker_id = ?", workerID)

	if q.From != "" {
		if from, err := time.ParseInLocation("2006-01-02", q.From, s.loc); err == nil {
			tx = tx.Where("checkin_at >= ?", from)
		}
	}
	if q.To != "" {
		if to, err := time.ParseInLocation("2006-01-02", q.To, s.loc); err == nil {
			tx = tx.Where("checkin_at < ?", to.AddDate(0, 0, 1))
		}
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var sessions []model.WorkSession
	if err := tx.Order("checkin_at DESC").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, err
	}

	items := make([]dto.SessionItem, 0, len(sessions))
	for _, sess := range sessions {
		item := dto.SessionItem{
			CheckinAt:    sess.CheckinAt,
			CheckoutAt:   sess.CheckoutAt,
			ID:           sess.ID,
			ProjectID:    sess.ProjectID,
			Distant:      sess.CheckinDistant,
			AutoCheckout: sess.AutoCheckout,
		}
		if sess.CheckoutReason != nil {
			item.CheckoutReason = string(*sess.CheckoutReason)
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *SessionService) loadActiveWorker(ctx context.Context, workerID int64) (*model.Worker, error) {
	var worker model.Worker
	if err := s.db.WithContext(ctx).First(&worker, workerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WorkerNotFound
		}
		return nil, err
	}
	if !worker.Active {
		return nil, apperrors.WorkerInactive
	}
	return &worker, nil
}
