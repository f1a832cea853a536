package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/database"
	"github.com/sahilchouksey/smart-campus-api/services/cron"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// ListCronLogs returns recent scheduled job runs
// GET /api/admin/cron-logs?job=&limit=
func ListCronLogs(c *fiber.Ctx, store database.Storage) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	logs, err := cron.ListLogs(c.UserContext(), store.DB(), c.Query("job"), limit)
	if err != nil {
		log.Errorf("failed to fetch cron logs: %v", err)
		return response.InternalServerError(c, "Failed to fetch cron logs")
	}
	return response.Success(c, logs)
}

// RunCronJob triggers a registered job immediately. manager is nil when cron is disabled.
// POST /api/admin/cron/:job/run
func RunCronJob(c *fiber.Ctx, manager *cron.CronManager) error {
	if manager == nil {
		return response.ServiceUnavailable(c, "Scheduled jobs are disabled")
	}
	name := c.Params("job")
	known := false
	for _, j := range manager.Jobs() {
		if j == name {
			known = true
			break
		}
	}
	if !known {
		return response.NotFound(c, "Unknown job")
	}

	if err := manager.RunJob(c.UserContext(), name); err != nil {
		return response.ErrorWithDetails(c, fiber.StatusInternalServerError, "Job failed", "JOB_FAILED", errDetails(err))
	}
	return response.SuccessWithMessage(c, "Job completed", fiber.Map{"job": name})
}

func errDetails(err error) interface{} {
	if response.ExposeDetails {
		return err.Error()
	}
	return nil
}
