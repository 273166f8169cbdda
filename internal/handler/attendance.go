package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"fieldops/config"
	"fieldops/internal/model/dto"
	"fieldops/internal/service"
	"fieldops/pkg/civil"
	"fieldops/pkg/response"
)

// Checkin opens a work session.
// POST /v1/attendance/checkin
func Checkin(ctx context.Context, c *app.RequestContext) {
	var req dto.CheckinRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Session().Checkin(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// Checkout closes the open session with a reason.
// POST /v1/attendance/checkout
func Checkout(ctx context.Context, c *app.RequestContext) {
	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Session().Checkout(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// ReportLocation records a device location status report.
// POST /v1/attendance/location
func ReportLocation(ctx context.Context, c *app.RequestContext) {
	var req dto.LocationReportRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Session().ReportLocation(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetSessionHistory lists a worker's sessions.
// GET /v1/workers/:worker_id/sessions
func GetSessionHistory(ctx context.Context, c *app.RequestContext) {
	workerID, err := strconv.ParseInt(c.Param("worker_id"), 10, 64)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var query dto.SessionHistoryQuery
	if err := c.Bind(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	items, err := service.Session().History(ctx, workerID, query)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{
		"count": len(items),
	})
}

// GetDailySummary returns the aggregated day for a worker.
// GET /v1/workers/:worker_id/summaries/:date
func GetDailySummary(ctx context.Context, c *app.RequestContext) {
	workerID, err := strconv.ParseInt(c.Param("worker_id"), 10, 64)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	loc := config.Cfg.Location()
	day, err := civil.ParseDate(c.Param("date"), loc)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	summary, err := service.Worktime().Summary(ctx, workerID, day)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	if summary == nil {
		response.Success(ctx, c, nil)
		return
	}

	response.Success(ctx, c, dto.DailySummaryData{
		Date:                  civil.DateString(summary.SummaryDate, loc),
		NormalMinutes:         summary.NormalMinutes,
		OvertimeMinutes:       summary.OvertimeMinutes,
		TravelMinutes:         summary.TravelMinutes,
		TravelOvertimeMinutes: summary.TravelOvertimeMinutes,
		TransitMinutes:        summary.TransitMinutes,
		LunchBreakMinutes:     summary.LunchBreakMinutes,
		LunchDeductionMinutes: summary.LunchDeductionMinutes,
		XPPenalty:             summary.XPPenalty,
		PaymentTotal:          summary.PaymentTotal,
	})
}

// RecomputeDailySummary re-aggregates one worker's day on demand.
// POST /v1/workers/:worker_id/summaries/:date/recompute
func RecomputeDailySummary(ctx context.Context, c *app.RequestContext) {
	workerID, err := strconv.ParseInt(c.Param("worker_id"), 10, 64)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	day, err := civil.ParseDate(c.Param("date"), config.Cfg.Location())
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}
	// Aggregate in the middle of the civil day to avoid boundary drift.
	day = day.Add(12 * time.Hour)

	summary, err := service.Worktime().AggregateDay(ctx, workerID, day)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, summary)
}
