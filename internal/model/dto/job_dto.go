package dto

// ========== Scheduler job DTO ==========

// JobRunResult is returned by the manual scan trigger.
type JobRunResult struct {
	Job       string `json:"job"`
	Processed int    `json:"processed"`
	Sent      int    `json:"sent"`
	Expired   int    `json:"expired"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}
