package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/internal/model"
	"fieldops/internal/model/dto"
	"fieldops/internal/notify"
	"fieldops/internal/payroll"
	"fieldops/pkg/civil"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/logger"
)

type AbsenceService struct {
	deps
	xp *XPService
}

var (
	absenceService *AbsenceService
	absenceOnce    sync.Once
)

func Absence() *AbsenceService {
	absenceOnce.Do(func() {
		absenceService = &AbsenceService{deps: defaultDeps(), xp: XP()}
	})

	return absenceService
}

func NewAbsenceService(d deps) *AbsenceService {
	return &AbsenceService{deps: d, xp: NewXPService(d)}
}

// Report registers an absence notice. Advance notices are free; a
// same-day notice before noon carries the fixed penalty and resets the
// streak; a same-day afternoon notice stays free. Registration is
// idempotent per (worker, date).
func (s *AbsenceService) Report(ctx context.Context, req dto.ReportAbsenceRequest) (*dto.ReportAbsenceResponse, error) {
	absenceDate, err := civil.ParseDate(req.AbsenceDate, s.loc)
	if err != nil {
		return nil, apperrors.AbsenceDateInvalid
	}

	now := s.now()
	today := civil.Date(now, s.loc)
	if absenceDate.Before(today) {
		return nil, apperrors.AbsenceDateInvalid
	}

	var existing model.AbsenceNotice
	err = s.db.WithContext(ctx).
		Where("worker_id = ? AND absence_date = ?", req.WorkerID, absenceDate).
		First(&existing).Error
	if err == nil {
		return &dto.ReportAbsenceResponse{
			AbsenceDate:       req.AbsenceDate,
			Kind:              string(existing.Kind),
			Penalized:         existing.Penalized,
			AlreadyRegistered: true,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	kind := model.AbsenceKindAdvance
	penalized := false
	if today.Equal(absenceDate) {
		if civil.BeforeNoon(now, s.loc) {
			kind = model.AbsenceKindSameDayMorning
			penalized = true
		} else {
			kind = model.AbsenceKindSameDayAfternoon
		}
	}

	notice := model.AbsenceNotice{
		WorkerID:    req.WorkerID,
		AbsenceDate: absenceDate,
		Kind:        kind,
		Reason:      req.Reason,
		ReportedAt:  now,
		Penalized:   penalized,
	}
	if err := s.db.WithContext(ctx).Create(&notice).Error; err != nil {
		return nil, err
	}

	resp := &dto.ReportAbsenceResponse{
		AbsenceDate: req.AbsenceDate,
		Kind:        string(kind),
		Penalized:   penalized,
	}

	if penalized {
		if err := s.applySameDayPenalty(ctx, req.WorkerID, req.AbsenceDate); err != nil {
			return nil, err
		}
		resp.XPPenalty = payroll.SameDayAbsencePenalty
	}

	logger.Logger.Info("Absence notice registered",
		zap.Int64("worker_id", req.WorkerID),
		zap.String("date", req.AbsenceDate),
		zap.String("kind", string(kind)),
		zap.Bool("penalized", penalized),
	)

	return resp, nil
}

// applySameDayPenalty deducts the fixed XP and resets the streak, leaving
// the multiplier at the single-day floor.
func (s *AbsenceService) applySameDayPenalty(ctx context.Context, workerID int64, date string) error {
	if err := s.xp.Adjust(ctx, nil, workerID, -payroll.SameDayAbsencePenalty, model.XPReasonSameDayAbsence,
		fmt.Sprintf("same-day absence on %s", date)); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&model.Worker{}).
		Where("id = ?", workerID).
		Updates(map[string]interface{}{
			"punctuality_streak":     0,
			"punctuality_multiplier": 1.1,
		}).Error
}

// ScanUnreported is the end-of-day detector: every active worker with
// neither a notice nor a check-in for today gets a pending inquiry.
func (s *AbsenceService) ScanUnreported(ctx context.Context) (ScanCounts, error) {
	var counts ScanCounts

	now := s.now()
	today := civil.Date(now, s.loc)
	dayStart, dayEnd := civil.DayBounds(now, s.loc)

	var workers []model.Worker
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&workers).Error; err != nil {
		return counts, err
	}

	for i := range workers {
		worker := &workers[i]
		counts.Processed++

		created, err := s.detectWorker(ctx, worker, today, dayStart, dayEnd)
		if err != nil {
			counts.Failed++
			logger.Logger.Error("Failed to evaluate unreported absence",
				zap.Int64("worker_id", worker.ID),
				zap.Error(err),
			)
			continue
		}
		if created {
			counts.Sent++
		} else {
			counts.Skipped++
		}
	}

	return counts, nil
}

func (s *AbsenceService) detectWorker(ctx context.Context, worker *model.Worker, today, dayStart, dayEnd time.Time) (bool, error) {
	var noticeCount int64
	err := s.db.WithContext(ctx).Model(&model.AbsenceNotice{}).
		Where("worker_id = ? AND absence_date = ?", worker.ID, today).
		Count(&noticeCount).Error
	if err != nil {
		return false, err
	}
	if noticeCount > 0 {
		return false, nil
	}

	var sessionCount int64
	err = s.db.WithContext(ctx).Model(&model.WorkSession{}).
		Where("worker_id = ? AND checkin_at >= ? AND checkin_at < ?", worker.ID, dayStart, dayEnd).
		Count(&sessionCount).Error
	if err != nil {
		return false, err
	}
	if sessionCount > 0 {
		return false, nil
	}

	var existing model.UnreportedAbsence
	err = s.db.WithContext(ctx).
		Where("worker_id = ? AND absence_date = ?", worker.ID, today).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	inquiry := model.UnreportedAbsence{
		WorkerID:    worker.ID,
		AbsenceDate: today,
		Status:      model.UnreportedAbsencePending,
	}
	if err := s.db.WithContext(ctx).Create(&inquiry).Error; err != nil {
		return false, err
	}

	if err := s.gw.SendPush(notify.NewAbsenceInquiry(worker.ID, inquiry.ID, civil.DateString(today, s.loc))); err != nil {
		logger.Logger.Error("Failed to send absence inquiry",
			zap.Int64("worker_id", worker.ID),
			zap.Error(err),
		)
	}

	return true, nil
}

// ResolveInquiry confirms or denies a pending unreported absence.
// Confirming applies the same penalty as a same-day morning notice.
func (s *AbsenceService) ResolveInquiry(ctx context.Context, inquiryID int64, req dto.ResolveInquiryRequest) (*dto.InquiryItem, error) {
	var inquiry model.UnreportedAbsence
	if err := s.db.WithContext(ctx).First(&inquiry, inquiryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InquiryNotFound
		}
		return nil, err
	}
	if inquiry.Status != model.UnreportedAbsencePending {
		return nil, apperrors.InquiryResolved
	}

	now := s.now()
	dateKey := civil.DateString(inquiry.AbsenceDate, s.loc)

	status := model.UnreportedAbsenceDenied
	if req.Confirm {
		status = model.UnreportedAbsenceConfirmed
	}

	err := s.db.WithContext(ctx).Model(&inquiry).Updates(map[string]interface{}{
		"status":      status,
		"explanation": req.Explanation,
		"resolved_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	inquiry.Status = status
	inquiry.Explanation = req.Explanation
	inquiry.ResolvedAt = &now

	if req.Confirm {
		if err := s.xp.Adjust(ctx, nil, inquiry.WorkerID, -payroll.SameDayAbsencePenalty, model.XPReasonConfirmedAbsence,
			fmt.Sprintf("confirmed unreported absence on %s", dateKey)); err != nil {
			return nil, err
		}
		err := s.db.WithContext(ctx).Model(&model.Worker{}).
			Where("id = ?", inquiry.WorkerID).
			Updates(map[string]interface{}{
				"punctuality_streak":     0,
				"punctuality_multiplier": 1.1,
			}).Error
		if err != nil {
			return nil, err
		}
	}

	logger.Logger.Info("Absence inquiry resolved",
		zap.Int64("inquiry_id", inquiry.ID),
		zap.Int64("worker_id", inquiry.WorkerID),
		zap.String("status", string(status)),
	)

	return &dto.InquiryItem{
		ResolvedAt:  inquiry.ResolvedAt,
		ID:          inquiry.ID,
		WorkerID:    inquiry.WorkerID,
		AbsenceDate: dateKey,
		Status:      string(status),
		Explanation: inquiry.Explanation,
	}, nil
}
