package event

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// EventHandler handles campus event endpoints
type EventHandler struct {
	events *services.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// EventRequest is the body of event create and update. An empty department makes the event campus-wide.
type EventRequest struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Date        *string `json:"date" validate:"omitempty,notblank"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Type        *string `json:"type" validate:"omitempty,event_type"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
}

func (r EventRequest) input() (services.EventInput, map[string]string) {
	in := services.EventInput{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Department:  r.Department,
	}
	if r.Type != nil {
		t := model.EventType(*r.Type)
		in.Type = &t
	}
	if r.Date != nil {
		date, _, ok := handlers.ParseTime(*r.Date)
		if !ok {
			return in, map[string]string{"date": "date must be an RFC 3339 timestamp or a YYYY-MM-DD date"}
		}
		in.Date = &date
	}
	return in, nil
}

// ListEvents handles GET /api/events?upcoming=true&type=&limit=
func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.events.List(c.UserContext(), middleware.Actor(c), services.ListEventsOptions{
		Upcoming: c.QueryBool("upcoming"),
		Type:     model.EventType(c.Query("type")),
		Limit:    limit,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, items)
}

// GetEvent handles GET /api/events/:id
func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	item, err := h.events.Get(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, item)
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var req EventRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	missing := map[string]string{}
	if req.Title == nil {
		missing["title"] = "title is a required field"
	}
	if req.Date == nil {
		missing["date"] = "date is a required field"
	}
	if len(missing) > 0 {
		return response.ValidationError(c, missing)
	}

	in, fields := req.input()
	if fields != nil {
		return response.ValidationError(c, fields)
	}
	e, err := h.events.Create(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Event created successfully", e)
}

// UpdateEvent handles PUT /api/events/:id
func (h *EventHandler) UpdateEvent(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}
	var req EventRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	in, fields := req.input()
	if fields != nil {
		return response.ValidationError(c, fields)
	}
	e, err := h.events.Update(c.UserContext(), middleware.Actor(c), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Event updated successfully", e)
}

// DeleteEvent handles DELETE /api/events/:id
func (h *EventHandler) DeleteEvent(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	if err := h.events.Delete(c.UserContext(), middleware.Actor(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Event deleted successfully", nil)
}

// Register handles POST /api/events/:id/register
func (h *EventHandler) Register(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	if err := h.events.Register(c.UserContext(), middleware.Actor(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Registered for event", nil)
}

// Unregister handles DELETE /api/events/:id/register
func (h *EventHandler) Unregister(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	if err := h.events.Unregister(c.UserContext(), middleware.Actor(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Unregistered from event", nil)
}
