package model

import "time"

// AbsenceKind classifies how a notice relates to the absence date.
type AbsenceKind string

const (
	AbsenceKindAdvance          AbsenceKind = "advance"
	AbsenceKindSameDayMorning   AbsenceKind = "same_day_morning"
	AbsenceKindSameDayAfternoon AbsenceKind = "same_day_afternoon"
)

// AbsenceNotice is a worker-reported absence, unique per (worker, date).
type AbsenceNotice struct {
	BaseModel
	WorkerID    int64       `gorm:"not null;uniqueIndex:uniq_absence_worker_date" json:"worker_id"`
	AbsenceDate time.Time   `gorm:"type:date;not null;uniqueIndex:uniq_absence_worker_date" json:"absence_date"`
	Kind        AbsenceKind `gorm:"type:varchar(24);not null" json:"kind"`
	Reason      string      `gorm:"type:varchar(255);not null;default:''" json:"reason"`
	ReportedAt  time.Time   `gorm:"not null" json:"reported_at"`
	Penalized   bool        `gorm:"not null;default:false" json:"penalized"`
}

func (AbsenceNotice) TableName() string {
	return "absence_notices"
}

// UnreportedAbsenceStatus is the inquiry resolution state.
type UnreportedAbsenceStatus string

const (
	UnreportedAbsencePending   UnreportedAbsenceStatus = "pending"
	UnreportedAbsenceConfirmed UnreportedAbsenceStatus = "confirmed"
	UnreportedAbsenceDenied    UnreportedAbsenceStatus = "denied"
)

// UnreportedAbsence is created by the end-of-day detector for workers with
// no notice and no check-in, unique per (worker, date).
type UnreportedAbsence struct {
	BaseModel
	WorkerID    int64                   `gorm:"not null;uniqueIndex:uniq_unreported_worker_date" json:"worker_id"`
	AbsenceDate time.Time               `gorm:"type:date;not null;uniqueIndex:uniq_unreported_worker_date" json:"absence_date"`
	Status      UnreportedAbsenceStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_unreported_status" json:"status"`
	Explanation string                  `gorm:"type:varchar(512);not null;default:''" json:"explanation"`
	ResolvedAt  *time.Time              `json:"resolved_at,omitempty"`
}

func (UnreportedAbsence) TableName() string {
	return "unreported_absences"
}
