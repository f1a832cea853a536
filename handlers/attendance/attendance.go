package attendance

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// AttendanceHandler handles attendance endpoints
type AttendanceHandler struct {
	attendance *services.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendance *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// MarkRequest records one class session
type MarkRequest struct {
	CourseID uint            `json:"course_id" validate:"required"`
	Date     string          `json:"date"` // YYYY-MM-DD, defaults to today
	Records  []RecordRequest `json:"records" validate:"required,min=1,dive"`
}

// RecordRequest is one student's status
type RecordRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`
	Remark    string `json:"remark" validate:"max=255"`
}

// MarkAttendance handles POST /api/attendance
func (h *AttendanceHandler) MarkAttendance(c *fiber.Ctx) error {
	var req MarkRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	in := services.MarkAttendanceInput{CourseID: req.CourseID}
	if req.Date != "" {
		date, _, ok := handlers.ParseTime(req.Date)
		if !ok {
			return response.ValidationError(c, map[string]string{"date": "date must be a YYYY-MM-DD date"})
		}
		in.Date = date
	}
	for _, r := range req.Records {
		in.Records = append(in.Records, services.AttendanceMark{
			StudentID: r.StudentID,
			Status:    model.AttendanceStatus(r.Status),
			Remark:    r.Remark,
		})
	}

	session, err := h.attendance.Mark(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Attendance marked successfully", session)
}

// ListCourseAttendance handles GET /api/attendance/course/:id
func (h *AttendanceHandler) ListCourseAttendance(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	sessions, err := h.attendance.ListForCourse(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, sessions)
}

// MyAttendance handles GET /api/attendance/me
func (h *AttendanceHandler) MyAttendance(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	summary, err := h.attendance.StudentSummary(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{
		"courses":      summary,
		"generated_at": time.Now().UTC(),
	})
}
