package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"fieldops/internal/handler"
	"fieldops/internal/middleware"
)

func Register(h *server.Hertz) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")

	// Attendance: the mobile client's session surface.
	attendance := v1.Group("/attendance")
	attendance.Use(middleware.GeneralRateLimitMiddleware())
	{
		attendance.POST("/checkin", handler.Checkin)
		attendance.POST("/checkout", handler.Checkout)
		attendance.POST("/location", handler.ReportLocation)
	}

	// Worker history and daily summaries.
	workers := v1.Group("/workers")
	{
		workers.GET("/:worker_id/sessions", handler.GetSessionHistory)
		workers.GET("/:worker_id/summaries/:date", handler.GetDailySummary)
		workers.POST("/:worker_id/summaries/:date/recompute", handler.RecomputeDailySummary)
	}

	// Absence notices and inquiries.
	absences := v1.Group("/absences")
	absences.Use(middleware.GeneralRateLimitMiddleware())
	{
		absences.POST("", handler.ReportAbsence)
		absences.POST("/inquiries/:inquiry_id/resolve", handler.ResolveInquiry)
	}

	// Project task sequences and curing tasks.
	projects := v1.Group("/projects")
	{
		projects.GET("/:project_id/tasks", handler.ListProjectTasks)
		projects.GET("/:project_id/responsibility", handler.GetTodayResponsibility)
	}
	tasks := v1.Group("/tasks")
	tasks.Use(middleware.GeneralRateLimitMiddleware())
	{
		tasks.POST("/:task_id/complete-early", handler.CompleteTaskEarly)
	}

	// Daily reports.
	reports := v1.Group("/reports")
	reports.Use(middleware.GeneralRateLimitMiddleware())
	{
		reports.POST("", handler.SubmitReport)
	}
	responsibilities := v1.Group("/responsibilities")
	responsibilities.Use(middleware.GeneralRateLimitMiddleware())
	{
		responsibilities.POST("/:responsibility_id/transfer", handler.TransferResponsibility)
	}

	// Manual scan triggers for operations.
	jobs := v1.Group("/jobs")
	jobs.Use(middleware.JobTriggerRateLimitMiddleware())
	{
		jobs.GET("", handler.ListJobs)
		jobs.POST("/:job/run", handler.RunJob)
	}
}
