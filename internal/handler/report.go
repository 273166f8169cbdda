package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"fieldops/internal/model/dto"
	"fieldops/internal/service"
	"fieldops/pkg/response"
)

// SubmitReport records the daily report, resolving the responsibility
// and cancelling pending reminders.
// POST /v1/reports
func SubmitReport(ctx context.Context, c *app.RequestContext) {
	var req dto.SubmitReportRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Report().Submit(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetTodayResponsibility returns today's responsibility row for a project.
// GET /v1/projects/:project_id/responsibility
func GetTodayResponsibility(ctx context.Context, c *app.RequestContext) {
	projectID, err := strconv.ParseInt(c.Param("project_id"), 10, 64)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Report().TodayResponsibility(ctx, projectID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// TransferResponsibility hands report duty to another team member.
// POST /v1/responsibilities/:responsibility_id/transfer
func TransferResponsibility(ctx context.Context, c *app.RequestContext) {
	responsibilityID, err := strconv.ParseInt(c.Param("responsibility_id"), 10, 64)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var req dto.TransferResponsibilityRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Report().Transfer(ctx, responsibilityID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
