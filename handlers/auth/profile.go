package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// UpdateProfileRequest represents a profile update request. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	Name       *string `json:"name" validate:"omitempty,notblank,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	Department *string `json:"department" validate:"omitempty,max=100"`
}

// GetProfile retrieves the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, user)
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	updated, err := h.users.UpdateProfile(c.UserContext(), user.ID, services.UpdateProfileInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Department: req.Department,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Profile updated successfully", updated)
}
