package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"fieldops/internal/model/dto"
	"fieldops/internal/service"
	"fieldops/pkg/response"
)

// ReportAbsence registers an absence notice.
// POST /v1/absences
func ReportAbsence(ctx context.Context, c *app.RequestContext) {
	var req dto.ReportAbsenceRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Absence().Report(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// ResolveInquiry confirms or denies an unreported-absence inquiry.
// POST /v1/absences/inquiries/:inquiry_id/resolve
func ResolveInquiry(ctx context.Context, c *app.RequestContext) {
	inquiryID, err := strconv.ParseInt(c.Param("inquiry_id"), 10, 64)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var req dto.ResolveInquiryRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Absence().ResolveInquiry(ctx, inquiryID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
