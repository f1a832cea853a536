package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/auth"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
	"gorm.io/gorm"
)

// Locals keys set by Required
const (
	LocalUser   = "user"
	LocalClaims = "claims"
	LocalJTI    = "token_jti"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, blacklist *auth.BlacklistService, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: blacklist,
		db:               db,
	}
}

// Required rejects requests without a valid, unrevoked access token and loads the caller
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return response.Unauthorized(c, "Missing or malformed authorization token")
		}

		claims, err := m.jwtManager.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}
		if claims.TokenType != auth.TokenTypeAccess {
			return response.Unauthorized(c, "Invalid token type")
		}

		revoked, err := m.blacklistService.IsTokenRevoked(c.UserContext(), claims.ID)
		if err != nil {
			log.Errorf("token revocation check failed: %v", err)
			return response.InternalServerError(c, "Failed to check token status")
		}
		if revoked {
			return response.Unauthorized(c, "Token has been revoked")
		}

		var user model.User
		if err := m.db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.Unauthorized(c, "User not found")
			}
			log.Errorf("failed to load user %d: %v", claims.UserID, err)
			return response.InternalServerError(c, "Failed to load user")
		}
		// role changes and logout-everywhere bump the version
		if user.TokenVersion != claims.TokenVersion || user.Role != claims.Role {
			return response.Unauthorized(c, "Token has been invalidated")
		}

		c.Locals(LocalUser, &user)
		c.Locals(LocalClaims, claims)
		c.Locals(LocalJTI, claims.ID)
		return c.Next()
	}
}

// RequireRole allows the request through only for the given roles. It must follow Required.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok {
			return response.Unauthorized(c, "Authentication required")
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return response.Forbidden(c, "Insufficient permissions")
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUser extracts the authenticated user from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals(LocalUser).(*model.User)
	return u, ok && u != nil
}

// GetClaims extracts the token claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(LocalClaims).(*auth.Claims)
	return claims, ok && claims != nil
}

// Actor returns the service-layer identity of the caller. It must follow Required.
func Actor(c *fiber.Ctx) services.Actor {
	if u, ok := GetUser(c); ok {
		return services.ActorOf(u)
	}
	return services.Actor{}
}
