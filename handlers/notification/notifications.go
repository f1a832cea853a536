package notification

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetNotifications handles GET /api/notifications
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, limit, offset := handlers.Page(c)
	notifications, total, err := h.notificationService.List(c.UserContext(), services.ListNotificationsOptions{
		UserID:     user.ID,
		UnreadOnly: c.QueryBool("unread"),
		Type:       model.NotificationType(c.Query("type")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	data := make([]model.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		data = append(data, notifications[i].ToResponse())
	}
	return response.Paginated(c, data, page, limit, total)
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	count, err := h.notificationService.UnreadCount(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"unread_count": count})
}

// MarkAsRead handles PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	n, err := h.notificationService.MarkRead(c.UserContext(), id, user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Notification marked as read", n.ToResponse())
}

// MarkAllAsRead handles PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	updated, err := h.notificationService.MarkAllRead(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "All notifications marked as read", fiber.Map{"updated": updated})
}

// DeleteNotification handles DELETE /api/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	if err := h.notificationService.Delete(c.UserContext(), id, user.ID); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Notification deleted", nil)
}
