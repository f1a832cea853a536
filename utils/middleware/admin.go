package middleware

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fields never written to the audit trail
var redactedFields = []string{"password", "new_password", "current_password", "token", "refresh_token"}

// AdminAuditLog records a successful admin write. It must follow Required and RequireRole(admin).
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, ok := GetUser(c)
		if !ok {
			return c.Next()
		}

		var resourceID uint
		if id, err := strconv.ParseUint(c.Params("id"), 10, 32); err == nil {
			resourceID = uint(id)
		}

		var oldValue datatypes.JSON
		if resourceID > 0 && resource == "users" && (c.Method() == fiber.MethodPut || c.Method() == fiber.MethodDelete) {
			var user model.User
			if err := db.WithContext(c.UserContext()).First(&user, resourceID).Error; err == nil {
				oldValue = marshalAudit(user.Summary())
			}
		}

		var newValue datatypes.JSON
		if body := c.Body(); len(body) > 0 && (c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut) {
			var payload map[string]interface{}
			if err := json.Unmarshal(body, &payload); err == nil {
				for _, f := range redactedFields {
					delete(payload, f)
				}
				newValue = marshalAudit(payload)
			}
		}

		// fiber reuses the ctx after the handler returns, so copy what the entry needs now
		entry := model.AdminAuditLog{
			AdminID:     admin.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			OldValue:    oldValue,
			NewValue:    newValue,
			IPAddress:   c.IP(),
			UserAgent:   string(c.Request().Header.UserAgent()),
			Description: c.Method() + " " + c.Path(),
		}

		err := c.Next()

		entry.StatusCode = c.Response().StatusCode()
		if err != nil || entry.StatusCode >= fiber.StatusBadRequest {
			return err
		}
		if entry.ResourceID == 0 {
			entry.ResourceID = createdID(c.Response().Body())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if werr := db.WithContext(ctx).Create(&entry).Error; werr != nil {
			log.Warnf("failed to write audit log for %s %s: %v", action, resource, werr)
		}
		return nil
	}
}

// ListAuditLogs returns audit entries newest first
func ListAuditLogs(ctx context.Context, db *gorm.DB, resource string, limit, offset int) ([]model.AdminAuditLog, int64, error) {
	query := db.WithContext(ctx).Model(&model.AdminAuditLog{})
	if resource != "" {
		query = query.Where("resource = ?", resource)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []model.AdminAuditLog
	err := query.Preload("Admin").Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).Find(&logs).Error
	return logs, total, err
}

func marshalAudit(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// createdID picks data.id out of a success envelope
func createdID(body []byte) uint {
	var env struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return 0
	}
	return env.Data.ID
}
