package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition carries a stable business error code plus a default message.
type Definition struct {
	Code    string
	Message string
}

// Session errors.
var (
	SessionAlreadyOpen    = Definition{Code: "SESSION_ALREADY_OPEN", Message: "Worker already has an open session"}
	SessionNotOpen        = Definition{Code: "SESSION_NOT_OPEN", Message: "Worker has no open session"}
	CheckoutBeforeCheckin = Definition{Code: "CHECKOUT_BEFORE_CHECKIN", Message: "Checkout time precedes check-in time"}
	CheckoutReasonInvalid = Definition{Code: "CHECKOUT_REASON_INVALID", Message: "Checkout reason invalid"}
	LocationStatusInvalid = Definition{Code: "LOCATION_STATUS_INVALID", Message: "Location status invalid"}
)

// Worker and project errors.
var (
	WorkerNotFound    = Definition{Code: "WORKER_NOT_FOUND", Message: "Worker not found"}
	WorkerInactive    = Definition{Code: "WORKER_INACTIVE", Message: "Worker is inactive"}
	ProjectNotFound   = Definition{Code: "PROJECT_NOT_FOUND", Message: "Project not found"}
	ProjectInactive   = Definition{Code: "PROJECT_INACTIVE", Message: "Project is inactive"}
	WorkerNotAssigned = Definition{Code: "WORKER_NOT_ASSIGNED", Message: "Worker is not assigned to project"}
)

// Absence errors.
var (
	AbsenceDateInvalid = Definition{Code: "ABSENCE_DATE_INVALID", Message: "Absence date invalid"}
	InquiryNotFound    = Definition{Code: "INQUIRY_NOT_FOUND", Message: "Absence inquiry not found"}
	InquiryResolved    = Definition{Code: "INQUIRY_RESOLVED", Message: "Absence inquiry already resolved"}
)

// Task errors.
var (
	TaskNotFound     = Definition{Code: "TASK_NOT_FOUND", Message: "Project task not found"}
	TaskNotCura      = Definition{Code: "TASK_NOT_CURA", Message: "Task is not a curing task"}
	TaskNotStarted   = Definition{Code: "TASK_NOT_STARTED", Message: "Task has not been started"}
	TaskAlreadyDone  = Definition{Code: "TASK_ALREADY_DONE", Message: "Task already completed"}
)

// Report errors.
var (
	ReportDuplicate        = Definition{Code: "REPORT_DUPLICATE", Message: "Report already submitted for this date"}
	ResponsibilityNotFound = Definition{Code: "RESPONSIBILITY_NOT_FOUND", Message: "Report responsibility not found"}
	TransferTargetInvalid  = Definition{Code: "TRANSFER_TARGET_INVALID", Message: "Transfer target is not assigned to project"}
)

// Scheduler errors.
var (
	JobUnknown = Definition{Code: "JOB_UNKNOWN", Message: "Unknown scheduler job"}
	JobRunning = Definition{Code: "JOB_RUNNING", Message: "Scheduler job already running"}
)

// Transport errors.
var (
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, slow down"}
)

// Lookup maps error codes back to their definitions.
var Lookup = map[string]Definition{
	SessionAlreadyOpen.Code:     SessionAlreadyOpen,
	SessionNotOpen.Code:         SessionNotOpen,
	CheckoutBeforeCheckin.Code:  CheckoutBeforeCheckin,
	CheckoutReasonInvalid.Code:  CheckoutReasonInvalid,
	LocationStatusInvalid.Code:  LocationStatusInvalid,
	WorkerNotFound.Code:         WorkerNotFound,
	WorkerInactive.Code:         WorkerInactive,
	ProjectNotFound.Code:        ProjectNotFound,
	ProjectInactive.Code:        ProjectInactive,
	WorkerNotAssigned.Code:      WorkerNotAssigned,
	AbsenceDateInvalid.Code:     AbsenceDateInvalid,
	InquiryNotFound.Code:        InquiryNotFound,
	InquiryResolved.Code:        InquiryResolved,
	TaskNotFound.Code:           TaskNotFound,
	TaskNotCura.Code:            TaskNotCura,
	TaskNotStarted.Code:         TaskNotStarted,
	TaskAlreadyDone.Code:        TaskAlreadyDone,
	ReportDuplicate.Code:        ReportDuplicate,
	ResponsibilityNotFound.Code: ResponsibilityNotFound,
	TransferTargetInvalid.Code:  TransferTargetInvalid,
	JobUnknown.Code:             JobUnknown,
	JobRunning.Code:             JobRunning,
	TooManyRequests.Code:        TooManyRequests,
}

// Get returns the Definition for a code, or a generic one if unknown.
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
