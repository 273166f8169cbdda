package response

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"fieldops/pkg/errors"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse is the uniform success envelope.
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

func errorToHTTPStatus(err error) int {
	def, ok := err.(errors.Definition)
	if !ok {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case "WORKER_NOT_FOUND", "PROJECT_NOT_FOUND",
		"TASK_NOT_FOUND", "INQUIRY_NOT_FOUND", "RESPONSIBILITY_NOT_FOUND":
		return http.StatusNotFound // 404
	case "SESSION_ALREADY_OPEN", "REPORT_DUPLICATE",
		"INQUIRY_RESOLVED", "TASK_ALREADY_DONE", "JOB_RUNNING":
		return http.StatusConflict // 409
	case "SESSION_NOT_OPEN", "CHECKOUT_BEFORE_CHECKIN", "CHECKOUT_REASON_INVALID",
		"LOCATION_STATUS_INVALID", "ABSENCE_DATE_INVALID", "TASK_NOT_CURA",
		"TASK_NOT_STARTED", "TRANSFER_TARGET_INVALID", "JOB_UNKNOWN",
		"INVALID_REQUEST":
		return http.StatusBadRequest // 400
	case "WORKER_INACTIVE", "PROJECT_INACTIVE", "WORKER_NOT_ASSIGNED":
		return http.StatusForbidden // 403
	case "TOO_MANY_REQUESTS":
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}

// Error writes the error envelope with the mapped HTTP status.
func Error(ctx context.Context, c *app.RequestContext, err error) {
	ErrorWithDetails(ctx, c, err, nil)
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	statusCode := errorToHTTPStatus(err)

	var code, message string
	if def, ok := err.(errors.Definition); ok {
		code = def.Code
		message = def.Message
	} else {
		code = "INTERNAL_ERROR"
		message = err.Error()
	}

	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

func SuccessWithMeta(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}

// NoContent writes 204 No Content.
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
