package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles user login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	user, err := h.users.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return response.FromError(c, err)
	}

	res, err := h.issue(user)
	if err != nil {
		log.Errorf("failed to issue tokens for user %d: %v", user.ID, err)
		return response.InternalServerError(c, "Failed to generate tokens")
	}
	return response.SuccessWithMessage(c, "Login successful", res)
}
