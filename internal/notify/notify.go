// Package notify defines the closed set of notification variants the
// rules engine can emit and the gateway used to deliver them. Delivery is
// fire-and-forget: failures are logged and never roll back the state
// mutation that triggered them.
package notify

import (
	"time"

	"fieldops/pkg/civil"
)

// Kind tags a notification variant. The set is closed: every event the
// engine emits has its own constructor below.
type Kind string

const (
	KindLunchReturnAlert     Kind = "lunch_return_alert"
	KindLunchShortfall       Kind = "lunch_shortfall"
	KindAbsenceInquiry       Kind = "absence_inquiry"
	KindGPSLossCheckout      Kind = "gps_loss_checkout"
	KindCuraCompleted        Kind = "cura_completed"
	KindReportAssigned       Kind = "report_assigned"
	KindReportTransferred    Kind = "report_transferred"
	KindReportReminder       Kind = "report_reminder"
	KindReportExpiredPenalty Kind = "report_expired_penalty"
)

// Notification is one push to a worker. Data carries the variant's
// structured fields for the mobile client.
type Notification struct {
	Kind     Kind                   `json:"kind"`
	WorkerID int64                  `json:"worker_id"`
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Tag      string                 `json:"tag"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Gateway delivers notifications and room events, and schedules delayed
// scan triggers so a due alert does not wait on the next poller tick.
// Implementations must not block the caller on transport failures.
type Gateway interface {
	SendPush(n Notification) error
	Emit(room, event string, payload interface{}) error
	ScheduleScan(job string, delay time.Duration) error
}

func NewLunchReturnAlert(workerID, sessionID int64, minutesOut int) Notification {
	return Notification{
		Kind:     KindLunchReturnAlert,
		WorkerID: workerID,
		Title:    "Time to head back",
		Body:     "Your lunch break started a while ago. Remember to check back in.",
		Tag:      "lunch_return",
		Data: map[string]interface{}{
			"session_id":  sessionID,
			"minutes_out": minutesOut,
		},
	}
}

func NewLunchShortfall(workerID int64, date string, deductionMinutes int, penalty int64) Notification {
	return Notification{
		Kind:     KindLunchShortfall,
		WorkerID: workerID,
		Title:    "Lunch break below minimum",
		Body:     "Your lunch break yesterday was below the required minimum. A deduction was applied.",
		Tag:      "lunch_shortfall",
		Data: map[string]interface{}{
			"date":              date,
			"deduction_minutes": deductionMinutes,
			"xp_penalty":        penalty,
		},
	}
}

func NewAbsenceInquiry(workerID, inquiryID int64, date string) Notification {
	return Notification{
		Kind:     KindAbsenceInquiry,
		WorkerID: workerID,
		Title:    "We didn't see you today",
		Body:     "No check-in or absence notice was found for today. Were you absent?",
		Tag:      "absence_inquiry",
		Data: map[string]interface{}{
			"inquiry_id": inquiryID,
			"date":       date,
			"actions":    []string{"confirm", "deny"},
		},
	}
}

func NewGPSLossCheckout(workerID, sessionID int64, checkoutAt time.Time, hoursWorked float64) Notification {
	return Notification{
		Kind:     KindGPSLossCheckout,
		WorkerID: workerID,
		Title:    "Checked out automatically",
		Body:     "Your location signal was lost, so your session was closed.",
		Tag:      "gps_loss",
		Data: map[string]interface{}{
			"session_id":   sessionID,
			"checkout_at":  checkoutAt.Format(time.RFC3339),
			"hours_worked": hoursWorked,
		},
	}
}

func NewCuraCompleted(workerID, taskID int64, taskName string, nextTaskID int64) Notification {
	data := map[string]interface{}{
		"task_id":   taskID,
		"task_name": taskName,
	}
	if nextTaskID != 0 {
		data["next_task_id"] = nextTaskID
	}
	return Notification{
		Kind:     KindCuraCompleted,
		WorkerID: workerID,
		Title:    "Curing period finished",
		Body:     "A curing task completed and the next step is ready.",
		Tag:      "cura",
		Data:     data,
	}
}

func NewReportAssigned(workerID, projectID int64, date time.Time, loc *time.Location) Notification {
	return Notification{
		Kind:     KindReportAssigned,
		WorkerID: workerID,
		Title:    "Daily report duty",
		Body:     "You are responsible for today's project report.",
		Tag:      "report_assigned",
		Data: map[string]interface{}{
			"project_id": projectID,
			"date":       civil.DateString(date, loc),
		},
	}
}

func NewReportTransferred(workerID, projectID int64, date time.Time, loc *time.Location, reason string) Notification {
	return Notification{
		Kind:     KindReportTransferred,
		WorkerID: workerID,
		Title:    "Report duty transferred to you",
		Body:     "A teammate handed you today's project report.",
		Tag:      "report_transferred",
		Data: map[string]interface{}{
			"project_id": projectID,
			"date":       civil.DateString(date, loc),
			"reason":     reason,
		},
	}
}

func NewReportReminder(workerID, projectID int64, attempt int) Notification {
	return Notification{
		Kind:     KindReportReminder,
		WorkerID: workerID,
		Title:    "Daily report pending",
		Body:     "Your daily report has not been submitted yet.",
		Tag:      "report_reminder",
		Data: map[string]interface{}{
			"project_id": projectID,
			"attempt":    attempt,
		},
	}
}

func NewReportExpiredPenalty(workerID, projectID int64, penalty int64) Notification {
	return Notification{
		Kind:     KindReportExpiredPenalty,
		WorkerID: workerID,
		Title:    "Report missed",
		Body:     "The daily report was never submitted. A team penalty was applied.",
		Tag:      "report_expired",
		Data: map[string]interface{}{
			"project_id": projectID,
			"xp_penalty": penalty,
		},
	}
}
