package model

// XPReason tags a ledger entry with the rule that produced it.
type XPReason string

const (
	XPReasonPunctuality      XPReason = "punctuality"
	XPReasonLunchShortfall   XPReason = "lunch_shortfall"
	XPReasonSameDayAbsence   XPReason = "same_day_absence"
	XPReasonConfirmedAbsence XPReason = "confirmed_absence"
	XPReasonReportExpired    XPReason = "report_expired"
	XPReasonManualAdjustment XPReason = "manual_adjustment"
)

// XPTransaction is one ledger entry. Worker.XPTotal is the running sum,
// clamped at zero.
type XPTransaction struct {
	BaseModel
	WorkerID int64    `gorm:"not null;index:idx_xp_worker" json:"worker_id"`
	Amount   int64    `gorm:"not null" json:"amount"`
	Reason   XPReason `gorm:"type:varchar(32);not null" json:"reason"`
	Note     string   `gorm:"type:varchar(255);not null;default:''" json:"note"`
}

func (XPTransaction) TableName() string {
	return "xp_transactions"
}
