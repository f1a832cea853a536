package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// Enroll handles POST /api/courses/:id/enroll
func (h *CourseHandler) Enroll(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	enrollment, err := h.enrollments.Enroll(c.UserContext(), user.ID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Enrolled successfully", enrollment)
}

// Unenroll handles POST /api/courses/:id/unenroll
func (h *CourseHandler) Unenroll(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	if err := h.enrollments.Unenroll(c.UserContext(), user.ID, id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Unenrolled successfully", nil)
}

// ListStudents handles GET /api/courses/:id/students
func (h *CourseHandler) ListStudents(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	students, err := h.courses.Roster(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return response.FromError(c, err)
	}

	data := make([]model.UserSummary, 0, len(students))
	for i := range students {
		data = append(data, students[i].Summary())
	}
	return response.Success(c, data)
}
