package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/database"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// ListAuditLogs retrieves admin audit logs with pagination
// GET /api/admin/audit-logs?resource=&page=&limit=
func ListAuditLogs(c *fiber.Ctx, store database.Storage) error {
	page, limit, offset := handlers.Page(c)

	logs, total, err := middleware.ListAuditLogs(c.UserContext(), store.DB(), c.Query("resource"), limit, offset)
	if err != nil {
		log.Errorf("failed to fetch audit logs: %v", err)
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}
	return response.Paginated(c, logs, page, limit, total)
}
