package sse

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Event is one server-sent event
type Event struct {
	// Event is the SSE event type; empty omits the "event:" line
	Event string

	// Data is JSON-encoded unless it is already a string or []byte
	Data interface{}

	ID    string
	Retry int // reconnection delay in milliseconds
}

// Prepare sets the headers of an event stream response
func Prepare(c *fiber.Ctx) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
}

// Send writes an SSE event to the given writer and flushes immediately
func Send(w *bufio.Writer, event Event) error {
	if event.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if event.Retry > 0 {
		if _, err := fmt.Fprintf(w, "retry: %d\n", event.Retry); err != nil {
			return fmt.Errorf("failed to write retry: %w", err)
		}
	}
	if event.Event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event.Event); err != nil {
			return fmt.Errorf("failed to write event type: %w", err)
		}
	}

	var data string
	switch v := event.Data.(type) {
	case string:
		data = v
	case []byte:
		data = string(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		data = string(raw)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}
	return w.Flush()
}

// SendError sends an error event
func SendError(w *bufio.Writer, message string) error {
	return Send(w, Event{
		Event: "error",
		Data:  map[string]interface{}{"type": "error", "message": message},
	})
}

// SendKeepAlive writes a comment line so proxies keep the connection open
func SendKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
		return fmt.Errorf("failed to write keepalive: %w", err)
	}
	return w.Flush()
}
