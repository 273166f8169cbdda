package dto

import "time"

// ========== Absence DTO ==========

// ReportAbsenceRequest registers an absence notice.
type ReportAbsenceRequest struct {
	WorkerID    int64  `json:"worker_id" binding:"required"`
	AbsenceDate string `json:"absence_date" binding:"required"` // YYYY-MM-DD
	Reason      string `json:"reason"`
}

// ReportAbsenceResponse reports the classification outcome.
type ReportAbsenceResponse struct {
	AbsenceDate       string `json:"absence_date"`
	Kind              string `json:"kind"`
	Penalized         bool   `json:"penalized"`
	AlreadyRegistered bool   `json:"already_registered"`
	XPPenalty         int64  `json:"xp_penalty,omitempty"`
}

// ResolveInquiryRequest confirms or denies an unreported absence.
type ResolveInquiryRequest struct {
	Confirm     bool   `json:"confirm"`
	Explanation string `json:"explanation"`
}

// InquiryItem is one unreported-absence inquiry.
type InquiryItem struct {
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ID          int64      `json:"id"`
	WorkerID    int64      `json:"worker_id"`
	AbsenceDate string     `json:"absence_date"`
	Status      string     `json:"status"`
	Explanation string     `json:"explanation,omitempty"`
}
