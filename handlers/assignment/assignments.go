package assignment

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// AssignmentHandler handles assignment, submission and grade endpoints
type AssignmentHandler struct {
	assignments *services.AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignments *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// AssignmentRequest is the body of assignment create and update
type AssignmentRequest struct {
	CourseID    *uint   `json:"course_id"`
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=20000"`
	DueDate     *string `json:"due_date" validate:"omitempty,notblank"`
	MaxPoints   *int    `json:"max_points" validate:"omitempty,min=1,max=1000"`
}

func (r AssignmentRequest) input() (services.AssignmentInput, map[string]string) {
	in := services.AssignmentInput{
		CourseID:    r.CourseID,
		Title:       r.Title,
		Description: r.Description,
		MaxPoints:   r.MaxPoints,
	}
	if r.DueDate != nil {
		due, ok := parseDueDate(*r.DueDate)
		if !ok {
			return in, map[string]string{"due_date": "due_date must be an RFC 3339 timestamp or a YYYY-MM-DD date"}
		}
		in.DueDate = &due
	}
	return in, nil
}

// a bare date is due at the end of that day
func parseDueDate(s string) (time.Time, bool) {
	t, dateOnly, ok := handlers.ParseTime(s)
	if ok && dateOnly {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, ok
}

// ListAssignments handles GET /api/assignments?course_id=
func (h *AssignmentHandler) ListAssignments(c *fiber.Ctx) error {
	items, err := h.assignments.List(c.UserContext(), middleware.Actor(c), handlers.QueryID(c, "course_id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, items)
}

// GetAssignment handles GET /api/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	item, err := h.assignments.Get(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, item)
}

// CreateAssignment handles POST /api/assignments
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	var req AssignmentRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	missing := map[string]string{}
	if req.CourseID == nil || *req.CourseID == 0 {
		missing["course_id"] = "course_id is a required field"
	}
	if req.Title == nil {
		missing["title"] = "title is a required field"
	}
	if req.DueDate == nil {
		missing["due_date"] = "due_date is a required field"
	}
	if len(missing) > 0 {
		return response.ValidationError(c, missing)
	}

	in, fields := req.input()
	if fields != nil {
		return response.ValidationError(c, fields)
	}
	a, err := h.assignments.Create(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Assignment created successfully", a)
}

// UpdateAssignment handles PUT /api/assignments/:id
func (h *AssignmentHandler) UpdateAssignment(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}
	var req AssignmentRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	in, fields := req.input()
	if fields != nil {
		return response.ValidationError(c, fields)
	}
	a, err := h.assignments.Update(c.UserContext(), middleware.Actor(c), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Assignment updated successfully", a)
}

// DeleteAssignment handles DELETE /api/assignments/:id
func (h *AssignmentHandler) DeleteAssignment(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	if err := h.assignments.Delete(c.UserContext(), middleware.Actor(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Assignment deleted successfully", nil)
}

// GetGrades handles GET /api/grades
func (h *AssignmentHandler) GetGrades(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	grades, err := h.assignments.Grades(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, grades)
}
