package handler

import (
	"net/http"
	"time"

	"menu-service/internal/middleware"
	"menu-service/internal/model"
	"menu-service/pkg/database"
	"menu-service/pkg/jwtutil"
	"menu-service/pkg/logger"
	"menu-service/pkg/slugutil"
	"menu-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Register creates a new user account. Admin registrations also provision a
// seeded restaurant and link it to the user before returning. The duplicate
// email answer comes from a check-then-insert: a concurrent registration of
// the same email can slip past the check and surface as a 500 from the unique
// index instead of a 409.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("username", req.Username),
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username, email and password are required"})
	}

	// Check if user already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&existingUser); result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"message": "User already exists"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}

	role := req.Role
	if role == "" {
		role = "admin"
	}

	user := model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     role,
	}

	// Create the user and, for admins, their seeded restaurant in one transaction
	defer prometheus.TrackDBOperation("insert")(time.Now())
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		prometheus.RecordAuthError("database_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}

	if result := tx.Create(&user); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}

	if user.Role == "admin" {
		restaurant, err := provisionRestaurant(tx, &user)
		if err != nil {
			tx.Rollback()
			log.Error("Failed to provision restaurant", zap.Error(err))
			prometheus.RecordAuthError("restaurant_provision_failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
		}

		user.RestaurantID = &restaurant.ID
		if result := tx.Model(&model.User{}).Where("id = ?", user.ID).Update("restaurant_id", restaurant.ID); result.Error != nil {
			tx.Rollback()
			log.Error("Failed to link restaurant to user", zap.Error(result.Error))
			prometheus.RecordAuthError("user_update_failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
		}
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		prometheus.RecordAuthError("transaction_commit_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}

	// Generate JWT token
	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.RestaurantID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("User registered",
		zap.String("username", user.Username),
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	return c.JSON(http.StatusCreated, echo.Map{
		"user":  user,
		"token": token,
	})
}

// provisionRestaurant creates the default restaurant seeded for a freshly
// registered admin, inside the registration transaction
func provisionRestaurant(tx *gorm.DB, user *model.User) (*model.Restaurant, error) {
	number, err := model.NextSequence(tx, model.RestaurantSequence)
	if err != nil {
		return nil, err
	}

	restaurant := model.Restaurant{
		RestaurantID:  number,
		Name:          user.Username + "'s Restaurant",
		Description:   "Welcome to our restaurant",
		ContactNumber: "0000000000",
		Email:         user.Email,
		Address: model.Address{
			Street:  "123 Main St",
			City:    "City",
			State:   "State",
			Country: "Country",
			ZipCode: "12345",
		},
		OperatingHours: model.DefaultOperatingHours(),
		ThemeColor:     "#000000",
		Slug: slugutil.MakeUnique(user.Username+"-restaurant", func(candidate string) bool {
			var count int64
			tx.Model(&model.Restaurant{}).Where("slug = ?", candidate).Count(&count)
			return count > 0
		}),
	}

	if result := tx.Create(&restaurant); result.Error != nil {
		return nil, result.Error
	}
	return &restaurant, nil
}

// Login authenticates a user by email and password and issues a token.
// Unknown emails and wrong passwords both answer 401 with the same body.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Warn("Login for unknown email", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
	}

	// Generate JWT token
	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.RestaurantID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("User logged in", zap.String("email", user.Email))

	return c.JSON(http.StatusOK, echo.Map{
		"user":  user,
		"token": token,
	})
}

// GetProfile returns the caller's account with the linked restaurant expanded
func GetProfile(c echo.Context) error {
	log := logger.FromContext(c)

	caller, ok := middleware.CurrentUser(c)
	if !ok {
		log.Error("Failed to get user from context")
		prometheus.RecordAuthError("unauthorized_profile_access")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Preload("Restaurant").First(&user, caller.ID); result.Error != nil {
		log.Error("User not found", zap.Uint("user_id", caller.ID))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// MetricsHandler serves the Prometheus metrics endpoint
func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
