package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse represents a token refresh response
type RefreshResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// LogoutRequest optionally names a refresh token to revoke with the access token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken exchanges a valid refresh token for a new access token
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if ok, err := handlers.Bind(c, &req); !ok {
		return err
	}

	claims, err := h.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	revoked, err := h.blacklistService.IsTokenRevoked(c.UserContext(), claims.ID)
	if err != nil {
		log.Errorf("token revocation check failed: %v", err)
		return response.InternalServerError(c, "Failed to check token status")
	}
	if revoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	user, err := h.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		return response.Unauthorized(c, "User not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	token, _, err := h.jwtManager.GenerateAccessToken(subjectOf(user))
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}
	return response.Success(c, RefreshResponse{
		Token:     token,
		ExpiresIn: int(h.jwtManager.AccessExpiry().Seconds()),
	})
}

// Logout revokes the current access token, and the refresh token when one is supplied
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	ctx := c.UserContext()
	if err := h.blacklistService.RevokeToken(ctx, claims.ID, claims.UserID, expiryOf(claims.ExpiresAt), "logout"); err != nil {
		log.Errorf("failed to revoke token for user %d: %v", claims.UserID, err)
		return response.InternalServerError(c, "Failed to logout")
	}

	var req LogoutRequest
	if len(c.Body()) > 0 && c.BodyParser(&req) == nil && req.RefreshToken != "" {
		// a refresh token belonging to someone else is ignored
		if rc, err := h.jwtManager.ValidateRefreshToken(req.RefreshToken); err == nil && rc.UserID == claims.UserID {
			if err := h.blacklistService.RevokeToken(ctx, rc.ID, rc.UserID, expiryOf(rc.ExpiresAt), "logout"); err != nil {
				log.Warnf("failed to revoke refresh token for user %d: %v", claims.UserID, err)
			}
		}
	}

	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}

func expiryOf(exp *jwt.NumericDate) time.Time {
	if exp == nil {
		return time.Now().Add(24 * time.Hour)
	}
	return exp.Time
}
