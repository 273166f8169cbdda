package model

import "time"

// ResponsibilityStatus is the daily report responsibility state.
type ResponsibilityStatus string

const (
	ResponsibilityPending     ResponsibilityStatus = "pending"
	ResponsibilityTransferred ResponsibilityStatus = "transferred"
	ResponsibilityCompleted   ResponsibilityStatus = "completed"
)

// DailyReportResponsibility assigns one worker per (project, date) to
// submit the daily report. The original assignee survives transfers for
// audit.
type DailyReportResponsibility struct {
	BaseModel
	ProjectID  int64     `gorm:"not null;uniqueIndex:uniq_responsibility_project_date" json:"project_id"`
	ReportDate time.Time `gorm:"type:date;not null;uniqueIndex:uniq_responsibility_project_date" json:"report_date"`

	WorkerID         int64                `gorm:"not null;index:idx_responsibility_worker" json:"worker_id"`
	OriginalWorkerID int64                `gorm:"not null" json:"original_worker_id"`
	TransferReason   string               `gorm:"type:varchar(255);not null;default:''" json:"transfer_reason"`
	TransferredAt    *time.Time           `json:"transferred_at,omitempty"`
	Status           ResponsibilityStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_responsibility_status" json:"status"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
}

func (DailyReportResponsibility) TableName() string {
	return "daily_report_responsibilities"
}

// ReminderStatus is the escalation state of a report reminder.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderCancelled ReminderStatus = "cancelled"
	ReminderExpired   ReminderStatus = "expired"
)

// ReportReminder escalates after checkout until the report is submitted
// or attempts run out.
type ReportReminder struct {
	BaseModel
	WorkerID  int64 `gorm:"not null;index:idx_reminders_worker_project" json:"worker_id"`
	ProjectID int64 `gorm:"not null;index:idx_reminders_worker_project" json:"project_id"`
	SessionID int64 `gorm:"not null" json:"session_id"`

	NextFireAt time.Time      `gorm:"not null;index:idx_reminders_due" json:"next_fire_at"`
	Attempts   int            `gorm:"not null;default:0" json:"attempts"`
	Status     ReminderStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_reminders_due" json:"status"`
}

func (ReportReminder) TableName() string {
	return "report_reminders"
}

// Report is a submitted daily report for a (project, date).
type Report struct {
	BaseModel
	ProjectID  int64     `gorm:"not null;uniqueIndex:uniq_reports_project_date_worker" json:"project_id"`
	ReportDate time.Time `gorm:"type:date;not null;uniqueIndex:uniq_reports_project_date_worker" json:"report_date"`
	WorkerID   int64     `gorm:"not null;uniqueIndex:uniq_reports_project_date_worker" json:"worker_id"`
	Content    string    `gorm:"type:text;not null;default:''" json:"content"`
}

func (Report) TableName() string {
	return "reports"
}
