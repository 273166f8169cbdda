package model

import "time"

// LocationStatus is the device's reported location permission state.
type LocationStatus string

const (
	LocationGranted LocationStatus = "granted"
	LocationDenied  LocationStatus = "denied"
	LocationOff     LocationStatus = "off"
)

// Granted reports whether location access is available.
func (s LocationStatus) Granted() bool {
	return s == LocationGranted
}

// Valid reports whether the status is one a device may report.
func (s LocationStatus) Valid() bool {
	switch s {
	case LocationGranted, LocationDenied, LocationOff:
		return true
	default:
		return false
	}
}

// WorkerLocation is the latest location report per worker, kept for
// observability and audit.
type WorkerLocation struct {
	BaseModel
	WorkerID   int64          `gorm:"not null;uniqueIndex:uniq_locations_worker" json:"worker_id"`
	Status     LocationStatus `gorm:"type:varchar(16);not null" json:"status"`
	Latitude   float64        `gorm:"not null;default:0" json:"latitude"`
	Longitude  float64        `gorm:"not null;default:0" json:"longitude"`
	ReportedAt time.Time      `gorm:"not null" json:"reported_at"`
}

func (WorkerLocation) TableName() string {
	return "worker_locations"
}
