package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"menu-service/internal/model"
	"menu-service/pkg/config"
	"menu-service/pkg/database"
	"menu-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// authResponse mirrors the register/login response body
type authResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// setupTest wires an isolated in-memory database into the package globals
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the shared in-memory database alive
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Restaurant{}, &model.Dish{}, &model.Sequence{}))
	database.DB = db

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "handler-test-key", ExpirationHours: 1})
	return db
}

// newJSONContext builds an Echo context carrying an optional JSON body
func newJSONContext(t *testing.T, method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// decodeJSON unmarshals the recorded response body into v
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// registerAdmin runs the register handler for an admin account and returns
// the response, including the provisioned restaurant link and token
func registerAdmin(t *testing.T, username, email string) authResponse {
	t.Helper()

	c, rec := newJSONContext(t, http.MethodPost, "/api/auth/register", echo.Map{
		"username": username,
		"email":    email,
		"password": "secret123",
	})
	require.NoError(t, Register(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResponse
	decodeJSON(t, rec, &resp)
	return resp
}

// loadUser fetches a user row directly from the test database
func loadUser(t *testing.T, db *gorm.DB, id uint) *model.User {
	t.Helper()
	var user model.User
	require.NoError(t, db.First(&user, id).Error)
	return &user
}
