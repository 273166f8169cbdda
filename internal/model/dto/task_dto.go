package dto

import "time"

// ========== Task DTO ==========

// TaskItem is one project task in listings.
type TaskItem struct {
	CuraStartedAt       *time.Time `json:"cura_started_at,omitempty"`
	CuraAutoCompletedAt *time.Time `json:"cura_auto_completed_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	ID                  int64      `json:"id"`
	ProjectID           int64      `json:"project_id"`
	Name                string     `json:"name"`
	Type                string     `json:"type"`
	Status              string     `json:"status"`
	SortOrder           int        `json:"sort_order"`
}

// CompleteTaskResponse reports a manual completion and what started next.
type CompleteTaskResponse struct {
	Task     TaskItem  `json:"task"`
	NextTask *TaskItem `json:"next_task,omitempty"`
}
