package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/auth"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// UserHandler handles admin user management
type UserHandler struct {
	users     *services.UserService
	blacklist *auth.BlacklistService
}

// NewUserHandler creates a new admin user handler
func NewUserHandler(users *services.UserService, blacklist *auth.BlacklistService) *UserHandler {
	return &UserHandler{users: users, blacklist: blacklist}
}

// CreateUserRequest represents the request body for creating a user of any role
type CreateUserRequest struct {
	Name       string `json:"name" validate:"required,notblank,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required,campus_role"`
	Department string `json:"department" validate:"max=100"`
	StudentID  string `json:"student_id" validate:"max=50"`
	EmployeeID string `json:"employee_id" validate:"max=50"`
	Phone      string `json:"phone" validate:"max=30"`
}

// UpdateUserRequest represents the request body for updating a user. Role cannot change.
type UpdateUserRequest struct {
	Name       *string `json:"name" validate:"omitempty,notblank,max=100"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	StudentID  *string `json:"student_id" validate:"omitempty,max=50"`
	EmployeeID *string `json:"employee_id" validate:"omitempty,max=50"`
}

// ListUsers retrieves users with pagination and filters
// GET /api/admin/users?role=&department=&search=&page=&limit=
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page, limit, offset := handlers.Page(c)
	users, total, err := h.users.ListUsers(c.UserContext(), services.ListUsersOptions{
		Role:       c.Query("role"),
		Department: c.Query("department"),
		Search:     c.Query("search"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, users, page, limit, total)
}

// CreateUser creates an account of any role
// POST /api/admin/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	user, err := h.users.CreateUser(c.UserContext(), services.CreateUserInput{
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
	return response.Created(c, "User created successfully", user)
}

// UpdateUser edits a user's account
// PUT /api/admin/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}
	var req UpdateUserRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	user, err := h.users.AdminUpdate(c.UserContext(), id, services.AdminUpdateInput{
		Name:       req.Name,
		Department: req.Department,
		StudentID:  req.StudentID,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "User updated successfully", user)
}

// DeleteUser removes a user and everything they own
// DELETE /api/admin/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}
	if admin, ok := middleware.GetUser(c); ok && admin.ID == id {
		return response.BadRequest(c, "You cannot delete your own account")
	}

	if err := h.users.DeleteUser(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "User deleted successfully", nil)
}

// RevokeSessions invalidates every token issued to a user
// POST /api/admin/users/:id/revoke-sessions
func (h *UserHandler) RevokeSessions(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamID(c, "id")
	if !ok {
		return err
	}
	if _, err := h.users.GetByID(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}

	if err := h.blacklist.RevokeAllUserTokens(c.UserContext(), id); err != nil {
		log.Errorf("failed to revoke sessions of user %d: %v", id, err)
		return response.InternalServerError(c, "Failed to revoke sessions")
	}
	return response.SuccessWithMessage(c, "All sessions revoked", nil)
}
