package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// CourseHandler handles course and enrollment endpoints
type CourseHandler struct {
	courses     *services.CourseService
	enrollments *services.EnrollmentService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courses *services.CourseService, enrollments *services.EnrollmentService) *CourseHandler {
	return &CourseHandler{courses: courses, enrollments: enrollments}
}

// CourseRequest is the body of course create and update. Omitted fields are unchanged on update.
type CourseRequest struct {
	Code         *string `json:"code" validate:"omitempty,notblank,max=20"`
	Title        *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	Department   *string `json:"department" validate:"omitempty,max=100"`
	Credits      *int    `json:"credits" validate:"omitempty,min=1,max=10"`
	Semester     *string `json:"semester" validate:"omitempty,max=20"`
	Year         *int    `json:"year" validate:"omitempty,min=2000,max=2100"`
	MaxStudents  *int    `json:"max_students" validate:"omitempty,min=1"`
	IsActive     *bool   `json:"is_active"`
	InstructorID *uint   `json:"instructor_id"`
}

func (r CourseRequest) input() services.CourseInput {
	return services.CourseInput{
		Code:         r.Code,
		Title:        r.Title,
		Description:  r.Description,
		Department:   r.Department,
		Credits:      r.Credits,
		Semester:     r.Semester,
		Year:         r.Year,
		MaxStudents:  r.MaxStudents,
		IsActive:     r.IsActive,
		InstructorID: r.InstructorID,
	}
}

// ListCourses handles GET /api/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	courses, err := h.courses.List(c.UserContext(), middleware.Actor(c), services.ListCoursesOptions{
		Department: c.Query("department"),
		ActiveOnly: c.QueryBool("active"),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, model.CourseResponses(courses))
}

// ListAvailable handles GET /api/courses/available
func (h *CourseHandler) ListAvailable(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courses, err := h.enrollments.ListAvailable(c.UserContext(), c.Query("department"), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, model.CourseResponses(courses))
}

// GetCourse handles GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	course, err := h.courses.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, course.ToResponse())
}

// CreateCourse handles POST /api/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}
	missing := map[string]string{}
	if req.Code == nil {
		missing["code"] = "code is a required field"
	}
	if req.Title == nil {
		missing["title"] = "title is a required field"
	}
	if len(missing) > 0 {
		return response.ValidationError(c, missing)
	}

	course, err := h.courses.Create(c.UserContext(), middleware.Actor(c), req.input())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Course created successfully", course.ToResponse())
}

// UpdateCourse handles PUT /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}
	var req CourseRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	course, err := h.courses.Update(c.UserContext(), middleware.Actor(c), id, req.input())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Course updated successfully", course.ToResponse())
}

// DeleteCourse handles DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	if err := h.courses.Delete(c.UserContext(), middleware.Actor(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}
