package dto

import "time"

// ========== Attendance DTO ==========

// CheckinRequest starts a work session.
type CheckinRequest struct {
	WorkerID  int64   `json:"worker_id" binding:"required"`
	ProjectID int64   `json:"project_id" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CheckinResponse reports the created session and punctuality outcome.
type CheckinResponse struct {
	CheckinAt       time.Time `json:"checkin_at"`
	SessionID       int64     `json:"session_id"`
	DistanceMeters  float64   `json:"distance_meters"`
	Distant         bool      `json:"distant"`
	OutOfArea       bool      `json:"out_of_area"`
	Punctual        *bool     `json:"punctual,omitempty"`
	Streak          int       `json:"streak,omitempty"`
	Multiplier      float64   `json:"multiplier,omitempty"`
	XPAwarded       int64     `json:"xp_awarded,omitempty"`
	FirstOfDay      bool      `json:"first_of_day"`
	CancelledAlerts int64     `json:"cancelled_alerts"`
}

// CheckoutRequest closes the open session.
type CheckoutRequest struct {
	WorkerID int64  `json:"worker_id" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// CheckoutResponse reports the closed session.
type CheckoutResponse struct {
	CheckoutAt time.Time `json:"checkout_at"`
	SessionID  int64     `json:"session_id"`
	Reason     string    `json:"reason"`
	Duration   string    `json:"duration"`
}

// LocationReportRequest is the periodic device location status report.
type LocationReportRequest struct {
	WorkerID  int64   `json:"worker_id" binding:"required"`
	Status    string  `json:"status" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationReportResponse echoes the new GPS-loss marker state.
type LocationReportResponse struct {
	OffSince *time.Time `json:"off_since,omitempty"`
	Status   string     `json:"status"`
}

// SessionItem is one session in history listings.
type SessionItem struct {
	CheckinAt      time.Time  `json:"checkin_at"`
	CheckoutAt     *time.Time `json:"checkout_at,omitempty"`
	ID             int64      `json:"id"`
	ProjectID      int64      `json:"project_id"`
	CheckoutReason string     `json:"checkout_reason,omitempty"`
	Distant        bool       `json:"distant"`
	AutoCheckout   bool       `json:"auto_checkout"`
}

// SessionHistoryQuery filters session listings.
type SessionHistoryQuery struct {
	From  string `query:"from"`
	To    string `query:"to"`
	Limit int    `query:"limit"`
}

// DailySummaryData is the aggregated day result.
type DailySummaryData struct {
	Date                  string  `json:"date"`
	NormalMinutes         int     `json:"normal_minutes"`
	OvertimeMinutes       int     `json:"overtime_minutes"`
	TravelMinutes         int     `json:"travel_minutes"`
	TravelOvertimeMinutes int     `json:"travel_overtime_minutes"`
	TransitMinutes        int     `json:"transit_minutes"`
	LunchBreakMinutes     int     `json:"lunch_break_minutes"`
	LunchDeductionMinutes int     `json:"lunch_deduction_minutes"`
	XPPenalty             int64   `json:"xp_penalty"`
	PaymentTotal          float64 `json:"payment_total"`
}
