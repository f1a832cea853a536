package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/database"
)

// Pinger is an optional dependency checked by HandleCheckHealth, such as Redis
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlePing answers liveness probes
func HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "message": "pong"})
}

// HandleCheckHealth reports store health. A failing database gives 503; a failing cache only degrades.
func HandleCheckHealth(c *fiber.Ctx, store database.Storage, cache Pinger) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{}
	status := "ok"
	code := fiber.StatusOK

	if err := store.HealthCheck(ctx); err != nil {
		log.Errorf("health check: database: %v", err)
		checks["database"] = "unavailable"
		status = "unavailable"
		code = fiber.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if cache != nil {
		if err := cache.Ping(ctx); err != nil {
			log.Warnf("health check: redis: %v", err)
			checks["redis"] = "unavailable"
			if status == "ok" {
				status = "degraded"
			}
		} else {
			checks["redis"] = "ok"
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC(),
	})
}
