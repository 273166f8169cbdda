package model

import "time"

// TaskType distinguishes regular installation steps from curing waits.
type TaskType string

const (
	TaskTypeRegular TaskType = "regular"
	TaskTypeCura    TaskType = "cura"
)

// TaskStatus moves strictly forward: PENDING -> IN_PROGRESS -> COMPLETED.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// ProjectTask is one step in a project's ordered task sequence.
type ProjectTask struct {
	BaseModel
	ProjectID int64      `gorm:"not null;index:idx_tasks_project_order" json:"project_id"`
	Name      string     `gorm:"type:varchar(128);not null" json:"name"`
	Type      TaskType   `gorm:"type:varchar(16);not null;default:'regular'" json:"type"`
	Status    TaskStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_tasks_status" json:"status"`
	SortOrder int        `gorm:"not null;index:idx_tasks_project_order" json:"sort_order"`

	// CuraStartedAt is stamped when a curing task begins.
	// CuraAutoCompletedAt is stamped only by the automatic path; manual
	// early completion leaves it null.
	CuraStartedAt       *time.Time `json:"cura_started_at,omitempty"`
	CuraAutoCompletedAt *time.Time `json:"cura_auto_completed_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

func (ProjectTask) TableName() string {
	return "project_tasks"
}
