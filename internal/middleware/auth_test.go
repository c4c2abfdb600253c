package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"menu-service/internal/model"
	"menu-service/pkg/config"
	"menu-service/pkg/database"
	"menu-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupAuthTest(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.User{}))
	database.DB = db

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "middleware-test-key", ExpirationHours: 1})
	return db
}

func invokeAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	reached := false
	handler := AuthMiddleware(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, reached
}

func TestAuthMiddleware(t *testing.T) {
	db := setupAuthTest(t)

	user := model.User{Username: "ana", Email: "ana@example.com", Password: "hashed", Role: "admin"}
	require.NoError(t, db.Create(&user).Error)

	token, err := jwtutil.GenerateToken(user.Email, user.ID, nil)
	require.NoError(t, err)

	rec, reached := invokeAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestAuthMiddlewareSetsContext(t *testing.T) {
	db := setupAuthTest(t)

	restaurantID := uint(7)
	user := model.User{Username: "ana", Email: "ana@example.com", Password: "hashed", Role: "admin", RestaurantID: &restaurantID}
	require.NoError(t, db.Create(&user).Error)

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.RestaurantID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	handler := AuthMiddleware(func(c echo.Context) error {
		resolved, ok := CurrentUser(c)
		require.True(t, ok)
		assert.Equal(t, user.ID, resolved.ID)
		assert.Equal(t, user.ID, c.Get("user_id"))
		assert.Equal(t, "ana@example.com", c.Get("email"))
		assert.Equal(t, restaurantID, c.Get("restaurant_id"))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
}

func TestAuthMiddlewareRejections(t *testing.T) {
	db := setupAuthTest(t)

	user := model.User{Username: "gone", Email: "gone@example.com", Password: "hashed", Role: "admin"}
	require.NoError(t, db.Create(&user).Error)
	orphanToken, err := jwtutil.GenerateToken(user.Email, user.ID, nil)
	require.NoError(t, err)
	// The account behind orphanToken disappears before the request
	require.NoError(t, db.Unscoped().Delete(&user).Error)

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "missing authorization token"},
		{"not bearer", "Basic abc123", "invalid authorization format, expected Bearer token"},
		{"malformed header", "Bearer", "invalid authorization format, expected Bearer token"},
		{"garbage token", "Bearer not-a-jwt", "invalid or expired token"},
		{"deleted account", "Bearer " + orphanToken, "invalid or expired token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, reached := invokeAuth(t, tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, reached)
			assert.Contains(t, rec.Body.String(), tc.message)
		})
	}
}
