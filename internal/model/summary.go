package model

import "time"

// DailyWorkSummary is the per-worker-per-day aggregation result. Upserted
// by the worktime aggregator, keyed by (worker, date).
type DailyWorkSummary struct {
	BaseModel
	WorkerID    int64     `gorm:"not null;uniqueIndex:uniq_summary_worker_date" json:"worker_id"`
	SummaryDate time.Time `gorm:"type:date;not null;uniqueIndex:uniq_summary_worker_date" json:"summary_date"`

	// Minute buckets per pay tier.
	NormalMinutes         int `gorm:"not null;default:0" json:"normal_minutes"`
	OvertimeMinutes       int `gorm:"not null;default:0" json:"overtime_minutes"`
	TravelMinutes         int `gorm:"not null;default:0" json:"travel_minutes"`
	TravelOvertimeMinutes int `gorm:"not null;default:0" json:"travel_overtime_minutes"`
	TransitMinutes        int `gorm:"not null;default:0" json:"transit_minutes"`

	LunchBreakMinutes     int `gorm:"not null;default:0" json:"lunch_break_minutes"`
	LunchDeductionMinutes int `gorm:"not null;default:0" json:"lunch_deduction_minutes"`

	XPPenalty int64 `gorm:"not null;default:0" json:"xp_penalty"`

	// PaymentTotal is the computed pay for the day in currency units.
	PaymentTotal float64 `gorm:"not null;default:0" json:"payment_total"`
}

func (DailyWorkSummary) TableName() string {
	return "daily_work_summaries"
}
