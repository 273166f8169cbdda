package dto

import "time"

// ========== Report DTO ==========

// SubmitReportRequest submits the daily report for a project.
type SubmitReportRequest struct {
	WorkerID  int64  `json:"worker_id" binding:"required"`
	ProjectID int64  `json:"project_id" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// SubmitReportResponse reports what the submission resolved.
type SubmitReportResponse struct {
	ReportID               int64 `json:"report_id"`
	ResponsibilityResolved bool  `json:"responsibility_resolved"`
	CancelledReminders     int64 `json:"cancelled_reminders"`
}

// TransferResponsibilityRequest hands the daily report duty to a teammate.
type TransferResponsibilityRequest struct {
	ToWorkerID int64  `json:"to_worker_id" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// ResponsibilityItem is one daily responsibility row.
type ResponsibilityItem struct {
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TransferredAt    *time.Time `json:"transferred_at,omitempty"`
	ID               int64      `json:"id"`
	ProjectID        int64      `json:"project_id"`
	ReportDate       string     `json:"report_date"`
	WorkerID         int64      `json:"worker_id"`
	OriginalWorkerID int64      `json:"original_worker_id"`
	TransferReason   string     `json:"transfer_reason,omitempty"`
	Status           string     `json:"status"`
}
