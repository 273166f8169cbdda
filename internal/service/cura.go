package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/internal/model"
	"fieldops/internal/model/dto"
	"fieldops/internal/notify"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/logger"
)

// CuraDuration is the fixed curing wait before a curing task may
// auto-complete.
const CuraDuration = 24 * time.Hour

type CuraService struct {
	deps
}

var (
	curaService *CuraService
	curaOnce    sync.Once
)

func Cura() *CuraService {
	curaOnce.Do(func() {
		curaService = &CuraService{deps: defaultDeps()}
	})

	return curaService
}

func NewCuraService(d deps) *CuraService {
	return &CuraService{deps: d}
}

// ScanDue completes curing tasks whose wait elapsed and starts the next
// step in each project's sequence.
func (s *CuraService) ScanDue(ctx context.Context) (ScanCounts, error) {
	var counts ScanCounts

	cutoff := s.now().Add(-CuraDuration)

	var tasks []model.ProjectTask
	err := s.db.WithContext(ctx).
		Where("type = ? AND status = ? AND cura_started_at IS NOT NULL AND cura_started_at <= ? AND cura_auto_completed_at IS NULL",
			model.TaskTypeCura, model.TaskStatusInProgress, cutoff).
		Find(&tasks).Error
	if err != nil {
		return counts, err
	}

	for i := range tasks {
		task := &tasks[i]
		counts.Processed++

		next, err := s.autoComplete(ctx, task)
		if err != nil {
			counts.Failed++
			logger.Logger.Error("Failed to auto-complete curing task",
				zap.Int64("task_id", task.ID),
				zap.Int64("project_id", task.ProjectID),
				zap.Error(err),
			)
			continue
		}
		counts.Sent++

		s.notifyTeam(ctx, task, next)
	}

	return counts, nil
}

func (s *CuraService) autoComplete(ctx context.Context, task *model.ProjectTask) (*model.ProjectTask, error) {
	now := s.now()

	err := s.db.WithContext(ctx).Model(task).Updates(map[string]interface{}{
		"status":                 model.TaskStatusCompleted,
		"completed_at":           now,
		"cura_auto_completed_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	task.Status = model.TaskStatusCompleted
	task.CompletedAt = &now
	task.CuraAutoCompletedAt = &now

	return s.startNext(ctx, task)
}

// CompleteEarly closes an in-progress curing task before the wait
// elapses. The auto stamp stays null so the audit trail keeps the
// manual/automatic distinction.
func (s *CuraService) CompleteEarly(ctx context.Context, taskID int64) (*dto.CompleteTaskResponse, error) {
	var task model.ProjectTask
	if err := s.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.TaskNotFound
		}
		return nil, err
	}

	if task.Type != model.TaskTypeCura {
		return nil, apperrors.TaskNotCura
	}
	switch task.Status {
	case model.TaskStatusPending:
		return nil, apperrors.TaskNotStarted
	case model.TaskStatusCompleted:
		return nil, apperrors.TaskAlreadyDone
	}

	now := s.now()
	err := s.db.WithContext(ctx).Model(&task).Updates(map[string]interface{}{
		"status":       model.TaskStatusCompleted,
		"completed_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	task.Status = model.TaskStatusCompleted
	task.CompletedAt = &now

	next, err := s.startNext(ctx, &task)
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Curing task completed early",
		zap.Int64("task_id", task.ID),
		zap.Int64("project_id", task.ProjectID),
	)

	resp := &dto.CompleteTaskResponse{Task: taskItem(&task)}
	if next != nil {
		item := taskItem(next)
		resp.NextTask = &item
	}

	return resp, nil
}

// startNext promotes the next pending task by sequence order. A curing
// successor gets its wait stamped immediately.
func (s *CuraService) startNext(ctx context.Context, done *model.ProjectTask) (*model.ProjectTask, error) {
	var next model.ProjectTask
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND status = ? AND sort_order > ?",
			done.ProjectID, model.TaskStatusPending, done.SortOrder).
		Order("sort_order ASC").
		First(&next).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	updates := map[string]interface{}{"status": model.TaskStatusInProgress}
	if next.Type == model.TaskTypeCura {
		now := s.now()
		updates["cura_started_at"] = now
		next.CuraStartedAt = &now
	}
	if err := s.db.WithContext(ctx).Model(&next).Updates(updates).Error; err != nil {
		return nil, err
	}
	next.Status = model.TaskStatusInProgress

	return &next, nil
}

func (s *CuraService) notifyTeam(ctx context.Context, task, next *model.ProjectTask) {
	workerIDs, err := activeTeamWorkerIDs(ctx, s.db, task.ProjectID)
	if err != nil {
		logger.Logger.Error("Failed to load project team",
			zap.Int64("project_id", task.ProjectID),
			zap.Error(err),
		)
		return
	}

	var nextID int64
	if next != nil {
		nextID = next.ID
	}
	for _, workerID := range workerIDs {
		if err := s.gw.SendPush(notify.NewCuraCompleted(workerID, task.ID, task.Name, nextID)); err != nil {
			logger.Logger.Error("Failed to send curing notification",
				zap.Int64("worker_id", workerID),
				zap.Int64("task_id", task.ID),
				zap.Error(err),
			)
		}
	}
}

// ListTasks returns a project's task sequence in order.
func (s *CuraService) ListTasks(ctx context.Context, projectID int64) ([]dto.TaskItem, error) {
	var tasks []model.ProjectTask
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	items := make([]dto.TaskItem, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskItem(&tasks[i]))
	}

	return items, nil
}

func taskItem(t *model.ProjectTask) dto.TaskItem {
	return dto.TaskItem{
		CuraStartedAt:       t.CuraStartedAt,
		CuraAutoCompletedAt: t.CuraAutoCompletedAt,
		CompletedAt:         t.CompletedAt,
		ID:                  t.ID,
		ProjectID:           t.ProjectID,
		Name:                t.Name,
		Type:                string(t.Type),
		Status:              string(t.Status),
		SortOrder:           t.SortOrder,
	}
}

// activeTeamWorkerIDs lists active workers assigned to a project.
func activeTeamWorkerIDs(ctx context.Context, db *gorm.DB, projectID int64) ([]int64, error) {
	var ids []int64
	err := db.WithContext(ctx).Model(&model.ProjectAssignment{}).
		Joins("JOIN workers ON workers.id = project_assignments.worker_id AND workers.active = ?", true).
		Where("project_assignments.project_id = ? AND project_assignments.active = ?", projectID, true).
		Pluck("project_assignments.worker_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}
