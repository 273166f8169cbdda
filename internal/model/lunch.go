package model

import "time"

// LunchBreakAlert is one scheduled return reminder tied to a lunch
// checkout session. Deleted when the worker checks back in, marked sent
// once fired.
type LunchBreakAlert struct {
	BaseModel
	WorkerID  int64     `gorm:"not null;index:idx_lunch_alerts_worker" json:"worker_id"`
	SessionID int64     `gorm:"not null;index:idx_lunch_alerts_session" json:"session_id"`
	FireAt    time.Time `gorm:"not null;index:idx_lunch_alerts_due" json:"fire_at"`
	Sequence  int       `gorm:"not null" json:"sequence"`
	Sent      bool      `gorm:"not null;default:false;index:idx_lunch_alerts_due" json:"sent"`
}

func (LunchBreakAlert) TableName() string {
	return "lunch_break_alerts"
}
