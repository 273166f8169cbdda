package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"fieldops/internal/service"
	"fieldops/pkg/response"
)

// ListProjectTasks returns a project's task sequence in order.
// GET /v1/projects/:project_id/tasks
func ListProjectTasks(ctx context.Context, c *app.RequestContext) {
	projectID, err := strconv.ParseInt(c.Param("project_id"), 10, 64)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	items, err := service.Cura().ListTasks(ctx, projectID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, items)
}

// CompleteTaskEarly closes an in-progress curing task before its wait
// elapses.
// POST /v1/tasks/:task_id/complete-early
func CompleteTaskEarly(ctx context.Context, c *app.RequestContext) {
	taskID, err := strconv.ParseInt(c.Param("task_id"), 10, 64)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Cura().CompleteEarly(ctx, taskID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
