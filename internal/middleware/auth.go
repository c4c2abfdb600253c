package middleware

import (
	"net/http"
	"strings"

	"menu-service/internal/model"
	"menu-service/pkg/database"
	"menu-service/pkg/jwtutil"
	"menu-service/pkg/logger"
	"menu-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token from the Authorization header and
// resolves the caller. The resolved user, including their linked restaurant
// reference, is stored in the request context for downstream handlers. This
// is the sole gate for all tenant-scoped routes.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid authorization format, expected Bearer token"})
		}

		// Extract and validate the token
		tokenString := parts[1]
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token"})
		}

		// Resolve the user behind the token; a token for a deleted account is rejected
		var user model.User
		if result := database.GetDB().First(&user, claims.UserID); result.Error != nil {
			log.Warn("User from token no longer exists", zap.Uint("user_id", claims.UserID))
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token"})
		}

		// Store the resolved user in the context for later use
		c.Set("user", &user)
		c.Set("user_id", user.ID)
		c.Set("email", user.Email)
		if user.RestaurantID != nil {
			c.Set("restaurant_id", *user.RestaurantID)
		}

		log.Debug("Request authenticated",
			zap.Uint("user_id", user.ID),
			zap.String("email", user.Email))

		return next(c)
	}
}

// CurrentUser returns the authenticated user resolved by AuthMiddleware
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get("user").(*model.User)
	return user, ok
}
