package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"fieldops/internal/model/dto"
	"fieldops/internal/schedule"
	"fieldops/pkg/response"
)

// ListJobs names the jobs the manual trigger accepts.
// GET /v1/jobs
func ListJobs(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, schedule.Get().Names())
}

// RunJob performs one scan of the named job immediately.
// POST /v1/jobs/:job/run
func RunJob(ctx context.Context, c *app.RequestContext) {
	job := c.Param("job")

	counts, err := schedule.Get().RunOnce(ctx, job)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, dto.JobRunResult{
		Job:       job,
		Processed: counts.Processed,
		Sent:      counts.Sent,
		Expired:   counts.Expired,
		Failed:    counts.Failed,
		Skipped:   counts.Skipped,
	})
}
