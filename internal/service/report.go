package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
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

// Reminder escalation schedule after an end-of-shift checkout.
const (
	ReminderInitialDelay = 60 * time.Minute
	ReminderRetryDelay   = 30 * time.Minute
	ReminderMaxAttempts  = 3
)

type ReportService struct {
	deps
	xp  *XPService
	mu  sync.Mutex
	rng *rand.Rand
}

var (
	reportService *ReportService
	reportOnce    sync.Once
)

func Report() *ReportService {
	reportOnce.Do(func() {
		reportService = NewReportService(defaultDeps())
	})

	return reportService
}

func NewReportService(d deps) *ReportService {
	return NewReportServiceWithRand(d, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewReportServiceWithRand pins the tie-break source, used by tests to
// assert distribution or outcomes.
func NewReportServiceWithRand(d deps, rng *rand.Rand) *ReportService {
	return &ReportService{deps: d, xp: NewXPService(d), rng: rng}
}

func (s *ReportService) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rng.Intn(n)
}

// AssignResponsibilities runs the daily assignment over active projects.
// Idempotent per (project, date): an existing row is left alone.
func (s *ReportService) AssignResponsibilities(ctx context.Context) (ScanCounts, error) {
	var counts ScanCounts

	today := civil.Date(s.now(), s.loc)

	var projects []model.Project
	err := s.db.WithContext(ctx).
		Where("status = ?", model.ProjectStatusActive).
		Find(&projects).Error
	if err != nil {
		return counts, err
	}

	for i := range projects {
		project := &projects[i]
		counts.Processed++

		assigned, err := s.assignProject(ctx, project, today)
		if err != nil {
			counts.Failed++
			logger.Logger.Error("Failed to assign report responsibility",
				zap.Int64("project_id", project.ID),
				zap.Error(err),
			)
			continue
		}
		if assigned {
			counts.Sent++
		} else {
			counts.Skipped++
		}
	}

	return counts, nil
}

func (s *ReportService) assignProject(ctx context.Context, project *model.Project, today time.Time) (bool, error) {
	var existing model.DailyReportResponsibility
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND report_date = ?", project.ID, today).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	candidates, err := s.topRankedMembers(ctx, project.ID)
	if err != nil {
		return false, err
	}
	if len(candidates) == 0 {
		return false, nil
	}

	chosen := candidates[0]
	if len(candidates) > 1 {
		chosen = candidates[s.pick(len(candidates))]
	}

	responsibility := model.DailyReportResponsibility{
		ProjectID:        project.ID,
		ReportDate:       today,
		WorkerID:         chosen.ID,
		OriginalWorkerID: chosen.ID,
		Status:           model.ResponsibilityPending,
	}
	if err := s.db.WithContext(ctx).Create(&responsibility).Error; err != nil {
		return false, err
	}

	if err := s.gw.SendPush(notify.NewReportAssigned(chosen.ID, project.ID, today, s.loc)); err != nil {
		logger.Logger.Error("Failed to send report assignment",
			zap.Int64("worker_id", chosen.ID),
			zap.Int64("project_id", project.ID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Report responsibility assigned",
		zap.Int64("project_id", project.ID),
		zap.Int64("worker_id", chosen.ID),
		zap.String("date", civil.DateString(today, s.loc)),
	)

	return true, nil
}

// topRankedMembers returns the active team members holding the highest
// role rank on the project.
func (s *ReportService) topRankedMembers(ctx context.Context, projectID int64) ([]model.Worker, error) {
	var workers []model.Worker
	err := s.db.WithContext(ctx).Model(&model.Worker{}).
		Joins("JOIN project_assignments ON project_assignments.worker_id = workers.id").
		Where("project_assignments.project_id = ? AND project_assignments.active = ? AND workers.active = ?",
			projectID, true, true).
		Find(&workers).Error
	if err != nil {
		return nil, err
	}

	best := 0
	for i := range workers {
		if rank := workers[i].Role.Rank(); rank > best {
			best = rank
		}
	}
	if best == 0 {
		return nil, nil
	}

	top := workers[:0]
	for i := range workers {
		if workers[i].Role.Rank() == best {
			top = append(top, workers[i])
		}
	}

	return top, nil
}

// Transfer hands the duty to another active team member before
// completion. The original assignee and the reason survive for audit.
func (s *ReportService) Transfer(ctx context.Context, responsibilityID int64, req dto.TransferResponsibilityRequest) (*dto.ResponsibilityItem, error) {
	var responsibility model.DailyReportResponsibility
	if err := s.db.WithContext(ctx).First(&responsibility, responsibilityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ResponsibilityNotFound
		}
		return nil, err
	}
	if responsibility.Status == model.ResponsibilityCompleted {
		return nil, apperrors.ReportDuplicate
	}
	if req.ToWorkerID == responsibility.WorkerID {
		return nil, apperrors.TransferTargetInvalid
	}

	var memberCount int64
	err := s.db.WithContext(ctx).Model(&model.ProjectAssignment{}).
		Joins("JOIN workers ON workers.id = project_assignments.worker_id AND workers.active = ?", true).
		Where("project_assignments.project_id = ? AND project_assignments.worker_id = ? AND project_assignments.active = ?",
			responsibility.ProjectID, req.ToWorkerID, true).
		Count(&memberCount).Error
	if err != nil {
		return nil, err
	}
	if memberCount == 0 {
		return nil, apperrors.TransferTargetInvalid
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(&responsibility).Updates(map[string]interface{}{
		"worker_id":       req.ToWorkerID,
		"transfer_reason": req.Reason,
		"transferred_at":  now,
		"status":          model.ResponsibilityTransferred,
	}).Error
	if err != nil {
		return nil, err
	}
	responsibility.WorkerID = req.ToWorkerID
	responsibility.TransferReason = req.Reason
	responsibility.TransferredAt = &now
	responsibility.Status = model.ResponsibilityTransferred

	if err := s.gw.SendPush(notify.NewReportTransferred(req.ToWorkerID, responsibility.ProjectID, responsibility.ReportDate, s.loc, req.Reason)); err != nil {
		logger.Logger.Error("Failed to send transfer notification",
			zap.Int64("worker_id", req.ToWorkerID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Report responsibility transferred",
		zap.Int64("responsibility_id", responsibility.ID),
		zap.Int64("from_worker_id", responsibility.OriginalWorkerID),
		zap.Int64("to_worker_id", req.ToWorkerID),
	)

	return responsibilityItem(&responsibility, s.loc), nil
}

// Submit records the daily report, resolves the matching responsibility
// (silent no-op when none exists) and cancels the submitter's pending
// reminders.
func (s *ReportService) Submit(ctx context.Context, req dto.SubmitReportRequest) (*dto.SubmitReportResponse, error) {
	now := s.now()
	today := civil.Date(now, s.loc)

	var duplicate int64
	err := s.db.WithContext(ctx).Model(&model.Report{}).
		Where("project_id = ? AND report_date = ? AND worker_id = ?", req.ProjectID, today, req.WorkerID).
		Count(&duplicate).Error
	if err != nil {
		return nil, err
	}
	if duplicate > 0 {
		return nil, apperrors.ReportDuplicate
	}

	report := model.Report{
		ProjectID:  req.ProjectID,
		ReportDate: today,
		WorkerID:   req.WorkerID,
		Content:    req.Content,
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, err
	}

	resolved, err := s.resolveResponsibility(ctx, req.ProjectID, today, now)
	if err != nil {
		return nil, err
	}

	cancel := s.db.WithContext(ctx).Model(&model.ReportReminder{}).
		Where("worker_id = ? AND project_id = ? AND status = ?", req.WorkerID, req.ProjectID, model.ReminderPending).
		Update("status", model.ReminderCancelled)
	if cancel.Error != nil {
		return nil, cancel.Error
	}

	logger.Logger.Info("Daily report submitted",
		zap.Int64("project_id", req.ProjectID),
		zap.Int64("worker_id", req.WorkerID),
		zap.Bool("responsibility_resolved", resolved),
	)

	return &dto.SubmitReportResponse{
		ReportID:               report.ID,
		ResponsibilityResolved: resolved,
		CancelledReminders:     cancel.RowsAffected,
	}, nil
}

func (s *ReportService) resolveResponsibility(ctx context.Context, projectID int64, date, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&model.DailyReportResponsibility{}).
		Where("project_id = ? AND report_date = ? AND status <> ?", projectID, date, model.ResponsibilityCompleted).
		Updates(map[string]interface{}{
			"status":       model.ResponsibilityCompleted,
			"completed_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// ScheduleReminder queues the post-checkout reminder for the session's
// worker and project.
func (s *ReportService) ScheduleReminder(ctx context.Context, session *model.WorkSession) error {
	reminder := model.ReportReminder{
		WorkerID:   session.WorkerID,
		ProjectID:  session.ProjectID,
		SessionID:  session.ID,
		NextFireAt: s.now().Add(ReminderInitialDelay),
		Status:     model.ReminderPending,
	}

	if err := s.db.WithContext(ctx).Create(&reminder).Error; err != nil {
		return err
	}

	if err := s.gw.ScheduleScan("report_reminders", ReminderInitialDelay); err != nil {
		logger.Logger.Error("Failed to schedule reminder trigger",
			zap.Int64("worker_id", session.WorkerID),
			zap.Error(err),
		)
	}

	return nil
}

// ScanReminders fires due pending reminders, rescheduling up to the
// attempt cap. Exhausting the cap expires the reminder and penalizes the
// whole active team.
func (s *ReportService) ScanReminders(ctx context.Context) (ScanCounts, error) {
	var counts ScanCounts

	now := s.now()

	var reminders []model.ReportReminder
	err := s.db.WithContext(ctx).
		Where("status = ? AND next_fire_at <= ?", model.ReminderPending, now).
		Find(&reminders).Error
	if err != nil {
		return counts, err
	}

	for i := range reminders {
		reminder := &reminders[i]
		counts.Processed++

		outcome, err := s.fireReminder(ctx, reminder, now)
		if err != nil {
			counts.Failed++
			logger.Logger.Error("Failed to process report reminder",
				zap.Int64("reminder_id", reminder.ID),
				zap.Error(err),
			)
			continue
		}
		switch outcome {
		case reminderSent:
			counts.Sent++
		case reminderExpired:
			counts.Expired++
		default:
			counts.Skipped++
		}
	}

	return counts, nil
}

type reminderOutcome int

const (
	reminderSkipped reminderOutcome = iota
	reminderSent
	reminderExpired
)

func (s *ReportService) fireReminder(ctx context.Context, reminder *model.ReportReminder, now time.Time) (reminderOutcome, error) {
	// Re-read before firing: a report submitted after the scan's query
	// resolves the reminder instead of nagging.
	reportDate := civil.Date(reminder.CreatedAt, s.loc)
	var submitted int64
	err := s.db.WithContext(ctx).Model(&model.Report{}).
		Where("project_id = ? AND report_date = ? AND worker_id = ?",
			reminder.ProjectID, reportDate, reminder.WorkerID).
		Count(&submitted).Error
	if err != nil {
		return reminderSkipped, err
	}
	if submitted > 0 {
		err := s.db.WithContext(ctx).Model(reminder).
			Update("status", model.ReminderCancelled).Error
		return reminderSkipped, err
	}

	if reminder.Attempts >= ReminderMaxAttempts {
		if err := s.expireReminder(ctx, reminder); err != nil {
			return reminderSkipped, err
		}
		return reminderExpired, nil
	}

	attempt := reminder.Attempts + 1
	err = s.db.WithContext(ctx).Model(reminder).Updates(map[string]interface{}{
		"attempts":     attempt,
		"next_fire_at": now.Add(ReminderRetryDelay),
	}).Error
	if err != nil {
		return reminderSkipped, err
	}
	reminder.Attempts = attempt

	if err := s.gw.SendPush(notify.NewReportReminder(reminder.WorkerID, reminder.ProjectID, attempt)); err != nil {
		logger.Logger.Error("Failed to send report reminder",
			zap.Int64("worker_id", reminder.WorkerID),
			zap.Error(err),
		)
	}

	return reminderSent, nil
}

// expireReminder applies the group penalty: every active team member
// loses the fixed XP, each with their own notification.
func (s *ReportService) expireReminder(ctx context.Context, reminder *model.ReportReminder) error {
	err := s.db.WithContext(ctx).Model(reminder).
		Update("status", model.ReminderExpired).Error
	if err != nil {
		return err
	}
	reminder.Status = model.ReminderExpired

	memberIDs, err := activeTeamWorkerIDs(ctx, s.db, reminder.ProjectID)
	if err != nil {
		return err
	}

	for _, memberID := range memberIDs {
		err := s.xp.Adjust(ctx, nil, memberID, -payroll.ReportExpiredPenalty, model.XPReasonReportExpired,
			fmt.Sprintf("daily report missed on project %d", reminder.ProjectID))
		if err != nil {
			logger.Logger.Error("Failed to apply report penalty",
				zap.Int64("worker_id", memberID),
				zap.Int64("project_id", reminder.ProjectID),
				zap.Error(err),
			)
			continue
		}
		if err := s.gw.SendPush(notify.NewReportExpiredPenalty(memberID, reminder.ProjectID, payroll.ReportExpiredPenalty)); err != nil {
			logger.Logger.Error("Failed to send penalty notification",
				zap.Int64("worker_id", memberID),
				zap.Error(err),
			)
		}
	}

	logger.Logger.Warn("Report reminder expired",
		zap.Int64("reminder_id", reminder.ID),
		zap.Int64("project_id", reminder.ProjectID),
		zap.Int("team_size", len(memberIDs)),
	)

	return nil
}

// TodayResponsibility returns the project's responsibility row for today.
func (s *ReportService) TodayResponsibility(ctx context.Context, projectID int64) (*dto.ResponsibilityItem, error) {
	today := civil.Date(s.now(), s.loc)

	var responsibility model.DailyReportResponsibility
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND report_date = ?", projectID, today).
		First(&responsibility).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ResponsibilityNotFound
		}
		return nil, err
	}

	return responsibilityItem(&responsibility, s.loc), nil
}

func responsibilityItem(r *model.DailyReportResponsibility, loc *time.Location) *dto.ResponsibilityItem {
	return &dto.ResponsibilityItem{
		CompletedAt:      r.CompletedAt,
		TransferredAt:    r.TransferredAt,
		ID:               r.ID,
		ProjectID:        r.ProjectID,
		ReportDate:       civil.DateString(r.ReportDate, loc),
		WorkerID:         r.WorkerID,
		OriginalWorkerID: r.OriginalWorkerID,
		TransferReason:   r.TransferReason,
		Status:           string(r.Status),
	}
}
