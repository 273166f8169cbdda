package repository

import (
	"fmt"
	"os"

	"gorm.io/gen"

	"fieldops/storage/database"
)

// ========== WorkSession queries ==========

// WorkSessionQuerier generates typed session lookups.
type WorkSessionQuerier interface {
	// GetOpenByWorkerID finds the worker's open session
	// SELECT * FROM @@table WHERE worker_id = @workerID AND checkout_at IS NULL AND deleted_at IS NULL LIMIT 1
	GetOpenByWorkerID(workerID int64) (*gen.T, error)

	// ListByWorkerAndRange lists sessions in a check-in time window
	// SELECT * FROM @@table
	// WHERE worker_id = @workerID
	//   AND checkin_at >= @from AND checkin_at < @to
	//   AND deleted_at IS NULL
	// ORDER BY checkin_at ASC
	ListByWorkerAndRange(workerID int64, from, to string) ([]*gen.T, error)

	// ListOpenSessions lists all open sessions
	// SELECT * FROM @@table WHERE checkout_at IS NULL AND deleted_at IS NULL
	ListOpenSessions() ([]*gen.T, error)
}

// ========== Worker queries ==========

// WorkerQuerier generates typed worker lookups.
type WorkerQuerier interface {
	// ListActive lists active workers
	// SELECT * FROM @@table WHERE active = true AND deleted_at IS NULL
	ListActive() ([]*gen.T, error)

	// ListGPSOffBefore lists workers whose GPS has been off since before the cutoff
	// SELECT * FROM @@table
	// WHERE gps_off_since IS NOT NULL AND gps_off_since < @cutoff AND deleted_at IS NULL
	ListGPSOffBefore(cutoff string) ([]*gen.T, error)
}

// ========== ProjectTask queries ==========

// ProjectTaskQuerier generates typed task lookups.
type ProjectTaskQuerier interface {
	// ListDueCuraTasks lists curing tasks past their curing window
	// SELECT * FROM @@table
	// WHERE type = 'cura' AND status = 'in_progress'
	//   AND cura_started_at IS NOT NULL AND cura_started_at < @cutoff
	//   AND cura_auto_completed_at IS NULL
	//   AND deleted_at IS NULL
	ListDueCuraTasks(cutoff string) ([]*gen.T, error)

	// GetNextPending finds the next pending task by sequence order
	// SELECT * FROM @@table
	// WHERE project_id = @projectID AND status = 'pending' AND deleted_at IS NULL
	// ORDER BY sort_order ASC
	// LIMIT 1
	GetNextPending(projectID int64) (*gen.T, error)
}

// ========== ReportReminder queries ==========

// ReportReminderQuerier generates typed reminder lookups.
type ReportReminderQuerier interface {
	// ListDue lists pending reminders whose fire time has passed
	// SELECT * FROM @@table
	// WHERE status = 'pending' AND next_fire_at <= @now AND deleted_at IS NULL
	// ORDER BY next_fire_at ASC
	ListDue(now string) ([]*gen.T, error)
}

// Generate writes the typed query layer under internal/repository/query.
// The output is generated against a live database and is not committed.
func Generate() error {
	if err := database.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}

	db := database.DB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./internal/repository/query",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface | gen.WithoutContext,
		FieldNullable:     true,
		FieldCoverable:    false,
		FieldSignable:     false,
		FieldWithIndexTag: false,
		FieldWithTypeTag:  true,
	})

	g.UseDB(db)

	sessionModel := g.GenerateModel("work_sessions")
	workerModel := g.GenerateModel("workers")
	taskModel := g.GenerateModel("project_tasks")
	reminderModel := g.GenerateModel("report_reminders")

	g.ApplyInterface(func(WorkSessionQuerier) {}, sessionModel)
	g.ApplyInterface(func(WorkerQuerier) {}, workerModel)
	g.ApplyInterface(func(ProjectTaskQuerier) {}, taskModel)
	g.ApplyInterface(func(ReportReminderQuerier) {}, reminderModel)

	g.Execute()

	return nil
}

func RunGenerate() {
	if err := Generate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate code: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Code generation completed successfully!")
}
