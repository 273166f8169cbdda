package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fieldops/internal/model"
	"fieldops/internal/notify"
	"fieldops/pkg/logger"
	"fieldops/pkg/metrics"
)

// GPSOffThreshold is how long location must stay off before the open
// session is force-closed.
const GPSOffThreshold = 60 * time.Second

type GPSService struct {
	deps
}

var (
	gpsService *GPSService
	gpsOnce    sync.Once
)

func GPS() *GPSService {
	gpsOnce.Do(func() {
		gpsService = &GPSService{deps: defaultDeps()}
	})

	return gpsService
}

func NewGPSService(d deps) *GPSService {
	return &GPSService{deps: d}
}

// HandleReport updates the worker's off-since marker from a device
// location report. The marker is set once on the first non-granted
// report and cleared on any granted one; repeated non-granted reports
// leave it untouched. Returns the marker in effect after the report.
func (s *GPSService) HandleReport(ctx context.Context, worker *model.Worker, status model.LocationStatus, lat, lon float64) (*time.Time, error) {
	now := s.now()

	location := model.WorkerLocation{
		WorkerID:   worker.ID,
		Status:     status,
		Latitude:   lat,
		Longitude:  lon,
		ReportedAt: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "worker_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "latitude", "longitude", "reported_at", "updated_at"}),
	}).Create(&location).Error
	if err != nil {
		return nil, err
	}

	if status.Granted() {
		if worker.GPSOffSince != nil {
			err := s.db.WithContext(ctx).Model(worker).
				UpdateColumn("gps_off_since", nil).Error
			if err != nil {
				return nil, err
			}
			worker.GPSOffSince = nil
		}
		return nil, nil
	}

	if worker.GPSOffSince != nil {
		return worker.GPSOffSince, nil
	}

	err = s.db.WithContext(ctx).Model(worker).
		UpdateColumn("gps_off_since", now).Error
	if err != nil {
		return nil, err
	}
	worker.GPSOffSince = &now

	logger.Logger.Info("Worker location lost",
		zap.Int64("worker_id", worker.ID),
		zap.String("status", string(status)),
	)

	return worker.GPSOffSince, nil
}

// ScanOffline force-closes open sessions of workers whose location has
// been off longer than the threshold. Workers without an open session
// just have their marker cleared.
func (s *GPSService) ScanOffline(ctx context.Context) (ScanCounts, error) {
	var counts ScanCounts

	cutoff := s.now().Add(-GPSOffThreshold)

	var workers []model.Worker
	err := s.db.WithContext(ctx).
		Where("gps_off_since IS NOT NULL AND gps_off_since <= ?", cutoff).
		Find(&workers).Error
	if err != nil {
		return counts, err
	}

	for i := range workers {
		worker := &workers[i]
		counts.Processed++

		closed, err := s.handleOffline(ctx, worker)
		if err != nil {
			counts.Failed++
			logger.Logger.Error("Failed to handle offline worker",
				zap.Int64("worker_id", worker.ID),
				zap.Error(err),
			)
			continue
		}
		if closed {
			counts.Sent++
		} else {
			counts.Skipped++
		}
	}

	return counts, nil
}

func (s *GPSService) handleOffline(ctx context.Context, worker *model.Worker) (bool, error) {
	var session model.WorkSession
	err := s.db.WithContext(ctx).
		Where("worker_id = ? AND checkout_at IS NULL", worker.ID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, s.clearMarker(ctx, worker)
		}
		return false, err
	}

	now := s.now()
	reason := model.CheckoutReasonGPSLost
	err = s.db.WithContext(ctx).Model(&session).Updates(map[string]interface{}{
		"checkout_at":     now,
		"checkout_reason": reason,
		"auto_checkout":   true,
	}).Error
	if err != nil {
		return false, err
	}
	session.CheckoutAt = &now
	session.CheckoutReason = &reason
	session.AutoCheckout = true

	if err := s.clearMarker(ctx, worker); err != nil {
		return false, err
	}

	metrics.RecordCheckout(string(reason), true)

	hoursWorked := session.Duration().Hours()
	if err := s.gw.SendPush(notify.NewGPSLossCheckout(worker.ID, session.ID, now, hoursWorked)); err != nil {
		logger.Logger.Error("Failed to send GPS-loss notification",
			zap.Int64("worker_id", worker.ID),
			zap.Error(err),
		)
	}
	err = s.gw.Emit(fmt.Sprintf("project:%d", session.ProjectID), "session_closed", map[string]interface{}{
		"worker_id":    worker.ID,
		"session_id":   session.ID,
		"reason":       string(reason),
		"checkout_at":  now.Format(time.RFC3339),
		"hours_worked": hoursWorked,
	})
	if err != nil {
		logger.Logger.Error("Failed to emit GPS-loss event",
			zap.Int64("worker_id", worker.ID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Session force-closed after GPS loss",
		zap.Int64("worker_id", worker.ID),
		zap.Int64("session_id", session.ID),
		zap.Float64("hours_worked", hoursWorked),
	)

	return true, nil
}

func (s *GPSService) clearMarker(ctx context.Context, worker *model.Worker) error {
	err := s.db.WithContext(ctx).Model(worker).
		UpdateColumn("gps_off_since", nil).Error
	if err != nil {
		return err
	}
	worker.GPSOffSince = nil

	return nil
}
