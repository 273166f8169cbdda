package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/internal/model"
	"fieldops/pkg/logger"
)

// Migrate runs schema migration for all models.
func Migrate() error {
	db := DB()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	err := db.AutoMigrate(
		&model.Worker{},
		&model.Project{},
		&model.ProjectAssignment{},
		&model.WorkSession{},
		&model.DailyWorkSummary{},
		&model.XPTransaction{},
		&model.AbsenceNotice{},
		&model.UnreportedAbsence{},
		&model.LunchBreakAlert{},
		&model.ProjectTask{},
		&model.DailyReportResponsibility{},
		&model.ReportReminder{},
		&model.Report{},
		&model.WorkerLocation{},
	)

	if err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed successfully")
	return nil
}
