package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services"
	authutil "github.com/sahilchouksey/smart-campus-api/utils/auth"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	users            *services.UserService
	jwtManager       *authutil.JWTManager
	blacklistService *authutil.BlacklistService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *services.UserService, jwtManager *authutil.JWTManager, blacklist *authutil.BlacklistService) *AuthHandler {
	return &AuthHandler{
		users:            users,
		jwtManager:       jwtManager,
		blacklistService: blacklist,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,notblank,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"signup_role"`
	Department string `json:"department" validate:"max=100"`
	StudentID  string `json:"student_id" validate:"max=50"`
	EmployeeID string `json:"employee_id" validate:"max=50"`
	Phone      string `json:"phone" validate:"max=30"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User         *model.User `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"` // seconds
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	user, err := h.users.Register(c.UserContext(), services.CreateUserInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Department: req.Department,
		StudentID:  req.StudentID,
		EmployeeID: req.EmployeeID,
		Phone:      req.Phone,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	res, err := h.issue(user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}
	return response.Created(c, "Registration successful", res)
}

func (h *AuthHandler) issue(user *model.User) (*AuthResponse, error) {
	pair, err := h.jwtManager.IssuePair(subjectOf(user))
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:         user,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func subjectOf(user *model.User) authutil.Subject {
	return authutil.Subject{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}
}
