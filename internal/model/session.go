package model

import "time"

// CheckoutReason explains why a work session was closed.
type CheckoutReason string

const (
	CheckoutReasonLunch          CheckoutReason = "lunch"
	CheckoutReasonOtherProject   CheckoutReason = "other_project"
	CheckoutReasonSupplyPurchase CheckoutReason = "supply_purchase"
	CheckoutReasonEndOfShift     CheckoutReason = "end_of_shift"
	CheckoutReasonGPSLost        CheckoutReason = "gps_lost"
)

// Valid reports whether the reason is accepted on a manual checkout.
// gps_lost is reserved for the system.
func (r CheckoutReason) Valid() bool {
	switch r {
	case CheckoutReasonLunch, CheckoutReasonOtherProject,
		CheckoutReasonSupplyPurchase, CheckoutReasonEndOfShift:
		return true
	default:
		return false
	}
}

// WorkSession is one check-in/check-out interval. At most one open
// session (null CheckoutAt) exists per worker at any time.
type WorkSession struct {
	BaseModel
	WorkerID  int64 `gorm:"not null;index:idx_sessions_worker_checkin" json:"worker_id"`
	ProjectID int64 `gorm:"not null;index:idx_sessions_project" json:"project_id"`

	CheckinAt      time.Time       `gorm:"not null;index:idx_sessions_worker_checkin" json:"checkin_at"`
	CheckoutAt     *time.Time      `gorm:"index:idx_sessions_open" json:"checkout_at,omitempty"`
	CheckoutReason *CheckoutReason `gorm:"type:varchar(24)" json:"checkout_reason,omitempty"`

	// CheckinDistant flags check-ins farther than the distant threshold
	// from the site center. Informational only, never blocks.
	CheckinDistant bool `gorm:"not null;default:false" json:"checkin_distant"`

	// CheckinOutOfArea flags check-ins outside the project geofence
	// radius. Informational like CheckinDistant.
	CheckinOutOfArea bool `gorm:"not null;default:false" json:"checkin_out_of_area"`

	// AutoCheckout marks sessions closed by the system rather than the
	// worker (GPS loss, shortfall adjustment keeps it false).
	AutoCheckout bool `gorm:"not null;default:false" json:"auto_checkout"`

	CheckinLatitude  float64 `gorm:"not null;default:0" json:"checkin_latitude"`
	CheckinLongitude float64 `gorm:"not null;default:0" json:"checkin_longitude"`
	CheckinDistanceM float64 `gorm:"not null;default:0" json:"checkin_distance_m"`
}

func (WorkSession) TableName() string {
	return "work_sessions"
}

// Open reports whether the session is still running.
func (s *WorkSession) Open() bool {
	return s.CheckoutAt == nil
}

// Duration returns the closed session length, zero for open sessions.
func (s *WorkSession) Duration() time.Duration {
	if s.CheckoutAt == nil {
		return 0
	}
	return s.CheckoutAt.Sub(s.CheckinAt)
}
