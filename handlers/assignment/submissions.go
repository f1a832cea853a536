package assignment

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/pdfvalidation"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// SubmitRequest is the JSON body of a submission
type SubmitRequest struct {
	Content string `json:"content" validate:"max=50000"`
}

// GradeRequest grades one submission
type GradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required,min=0"`
	Feedback string   `json:"feedback" validate:"max=5000"`
}

// SubmitAssignment handles POST /api/assignments/:id/submit. The body is either JSON
// {content} or multipart form data with content and an optional PDF in file.
func (h *AssignmentHandler) SubmitAssignment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	var in services.SubmitInput
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		in.Content = c.FormValue("content")
		if file, ferr := c.FormFile("file"); ferr == nil {
			data, res, rerr := pdfvalidation.ReadUpload(file, pdfvalidation.SubmissionLimits)
			if rerr != nil {
				log.Errorf("failed to read submission upload: %v", rerr)
				return response.InternalServerError(c, "Failed to read uploaded file")
			}
			if !res.Valid {
				return response.ValidationError(c, map[string]string{"file": res.Reason})
			}
			in.File = &services.Attachment{Filename: file.Filename, Data: data}
		}
	} else {
		var req SubmitRequest
		if ok, err := handlers.Bind(c, &req); !ok {
			return err
		}
		in.Content = req.Content
	}

	sub, err := h.assignments.Submit(c.UserContext(), user.ID, id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Assignment submitted successfully", sub)
}

// ListSubmissions handles GET /api/assignments/:id/submissions
func (h *AssignmentHandler) ListSubmissions(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	subs, err := h.assignments.ListSubmissions(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, subs)
}

// GradeSubmission handles PUT /api/assignments/:id/submissions/:subId
func (h *AssignmentHandler) GradeSubmission(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}
	subID, ok, err := handlers.ParamID(c, "subId")
	if !ok {
		return err
	}
	var req GradeRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	sub, err := h.assignments.Grade(c.UserContext(), middleware.Actor(c), id, subID, services.GradeInput{
		Grade:    *req.Grade,
		Feedback: req.Feedback,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Submission graded successfully", sub)
}

// GetSubmissionFile handles GET /api/assignments/:id/submissions/:subId/file
func (h *AssignmentHandler) GetSubmissionFile(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}
	subID, ok, err := handlers.ParamID(c, "subId")
	if !ok {
		return err
	}

	url, err := h.assignments.AttachmentURL(c.UserContext(), middleware.Actor(c), id, subID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"url": url})
}
