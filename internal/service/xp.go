package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/internal/model"
	"fieldops/pkg/logger"
	"fieldops/pkg/metrics"
)

type XPService struct {
	deps
}

var (
	xpService *XPService
	xpOnce    sync.Once
)

func XP() *XPService {
	xpOnce.Do(func() {
		xpService = &XPService{deps: defaultDeps()}
	})

	return xpService
}

func NewXPService(d deps) *XPService {
	return &XPService{deps: d}
}

// Adjust writes a ledger entry and moves the worker's total, clamping at
// zero. The ledger keeps the full amount even when the total clamps.
func (s *XPService) Adjust(ctx context.Context, tx *gorm.DB, workerID, amount int64, reason model.XPReason, note string) error {
	if tx == nil {
		tx = s.db
	}

	entry := model.XPTransaction{
		WorkerID: workerID,
		Amount:   amount,
		Reason:   reason,
		Note:     note,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	// Increment, then clamp the total at zero.
	err := tx.WithContext(ctx).Model(&model.Worker{}).
		Where("id = ?", workerID).
		UpdateColumn("xp_total", gorm.Expr("xp_total + ?", amount)).Error
	if err != nil {
		return err
	}
	err = tx.WithContext(ctx).Model(&model.Worker{}).
		Where("id = ? AND xp_total < 0", workerID).
		UpdateColumn("xp_total", 0).Error
	if err != nil {
		return err
	}

	metrics.RecordXPAdjustment(string(reason), amount)

	logger.Logger.Info("XP adjusted",
		zap.Int64("worker_id", workerID),
		zap.Int64("amount", amount),
		zap.String("reason", string(reason)),
	)

	return nil
}
