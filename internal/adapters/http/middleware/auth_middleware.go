package middleware

import (
	"strings"

	"gymdesk/internal/core/domain"
	"gymdesk/internal/pkg/jwt"
	"gymdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "claims"

// AuthMiddleware verifies the bearer token and stores its claims
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequirePermission allows the request only when the token grants permission
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(claimsKey).(*jwt.Claims)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !claims.Can(permission) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// Caller returns the tenant-scoped caller of an authenticated request
func Caller(c *fiber.Ctx) domain.Caller {
	claims, ok := c.Locals(claimsKey).(*jwt.Claims)
	if !ok {
		return domain.Caller{}
	}
	return domain.Caller{UserID: claims.UserID, CompanyID: claims.CompanyID}
}
