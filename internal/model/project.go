package model

import "time"

// ProjectStatus is the lifecycle state of a project site.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusPaused    ProjectStatus = "paused"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project is a construction site with a geofence and work schedule.
type Project struct {
	BaseModel
	PublicID int64         `gorm:"uniqueIndex;not null" json:"public_id"`
	Name     string        `gorm:"type:varchar(128);not null" json:"name"`
	Status   ProjectStatus `gorm:"type:varchar(16);not null;default:'active';index:idx_projects_status" json:"status"`

	// Geofence center and radius. Zero radius falls back to the default.
	Latitude     float64 `gorm:"not null;default:0" json:"latitude"`
	Longitude    float64 `gorm:"not null;default:0" json:"longitude"`
	RadiusMeters float64 `gorm:"not null;default:0" json:"radius_meters"`

	// WorkStartTime is the scheduled daily start ("HH:MM" civil time).
	// Empty means no schedule: first check-ins count as punctual.
	WorkStartTime string `gorm:"type:varchar(8);not null;default:''" json:"work_start_time"`

	// TravelMode projects pay elevated rate tiers.
	TravelMode bool `gorm:"not null;default:false" json:"travel_mode"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectAssignment links a worker to a project team.
type ProjectAssignment struct {
	BaseModel
	ProjectID int64      `gorm:"not null;uniqueIndex:uniq_assignment_project_worker" json:"project_id"`
	WorkerID  int64      `gorm:"not null;uniqueIndex:uniq_assignment_project_worker" json:"worker_id"`
	Active    bool       `gorm:"not null;default:true;index:idx_assignments_active" json:"active"`
	StartedAt time.Time  `gorm:"type:date;not null" json:"started_at"`
	EndedAt   *time.Time `gorm:"type:date" json:"ended_at,omitempty"`
}

func (ProjectAssignment) TableName() string {
	return "project_assignments"
}
