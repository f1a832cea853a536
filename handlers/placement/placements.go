package placement

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// PlacementHandler handles placement record endpoints
type PlacementHandler struct {
	placements *services.PlacementService
}

// NewPlacementHandler creates a new placement handler
func NewPlacementHandler(placements *services.PlacementService) *PlacementHandler {
	return &PlacementHandler{placements: placements}
}

// PlacementRequest is the body of placement create and update
type PlacementRequest struct {
	StudentID  *uint    `json:"student_id"`
	Company    *string  `json:"company" validate:"omitempty,notblank,max=200"`
	Role       *string  `json:"role" validate:"omitempty,max=200"`
	PackageLPA *float64 `json:"package_lpa" validate:"omitempty,min=0"`
	Status     *string  `json:"status" validate:"omitempty,placement_status"`
	Notes      *string  `json:"notes" validate:"omitempty,max=5000"`
}

func (r PlacementRequest) input() services.PlacementInput {
	in := services.PlacementInput{
		StudentID:  r.StudentID,
		Company:    r.Company,
		Role:       r.Role,
		PackageLPA: r.PackageLPA,
		Notes:      r.Notes,
	}
	if r.Status != nil {
		st := model.PlacementStatus(*r.Status)
		in.Status = &st
	}
	return in
}

// ListPlacements handles GET /api/placements?status=
func (h *PlacementHandler) ListPlacements(c *fiber.Ctx) error {
	placements, err := h.placements.List(c.UserContext(), middleware.Actor(c), model.PlacementStatus(c.Query("status")))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, placements)
}

// CreatePlacement handles POST /api/placements
func (h *PlacementHandler) CreatePlacement(c *fiber.Ctx) error {
	var req PlacementRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	missing := map[string]string{}
	if req.StudentID == nil || *req.StudentID == 0 {
		missing["student_id"] = "student_id is a required field"
	}
	if req.Company == nil {
		missing["company"] = "company is a required field"
	}
	if len(missing) > 0 {
		return response.ValidationError(c, missing)
	}

	p, err := h.placements.Create(c.UserContext(), middleware.Actor(c), req.input())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Placement created successfully", p)
}

// UpdatePlacement handles PUT /api/placements/:id
func (h *PlacementHandler) UpdatePlacement(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}
	var req PlacementRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	p, err := h.placements.Update(c.UserContext(), middleware.Actor(c), id, req.input())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Placement updated successfully", p)
}

// DeletePlacement handles DELETE /api/placements/:id
func (h *PlacementHandler) DeletePlacement(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}

	if err := h.placements.Delete(c.UserContext(), middleware.Actor(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Placement deleted successfully", nil)
}
