package notification

import (
	"bufio"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
	"github.com/sahilchouksey/smart-campus-api/utils/sse"
)

var (
	pollInterval      = 5 * time.Second
	keepAliveInterval = 20 * time.Second
	maxStreamDuration = 30 * time.Minute
)

// StreamUnreadCount handles GET /api/notifications/stream. It emits an unread_count event
// on connect and whenever the count changes, until the client goes away.
func (h *NotificationHandler) StreamUnreadCount(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	userID := user.ID

	sse.Prepare(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// the fiber ctx is released once the handler returns
		ctx, cancel := context.WithTimeout(context.Background(), maxStreamDuration)
		defer cancel()

		last := int64(-1)
		poll := time.NewTicker(pollInterval)
		defer poll.Stop()
		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		for {
			count, err := h.notificationService.UnreadCount(ctx, userID)
			if err != nil {
				log.Warnf("unread count stream for user %d: %v", userID, err)
				_ = sse.SendError(w, "Failed to load unread count")
				return
			}
			if count != last {
				if err := sse.Send(w, sse.Event{Event: "unread_count", Data: fiber.Map{"unread_count": count}}); err != nil {
					return
				}
				last = count
			}

			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				if err := sse.SendKeepAlive(w); err != nil {
					return
				}
			case <-poll.C:
			}
		}
	})
	return nil
}
