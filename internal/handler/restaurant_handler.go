package handler

import (
	"net/http"
	"strconv"
	"time"

	"menu-service/internal/middleware"
	"menu-service/internal/model"
	"menu-service/pkg/database"
	"menu-service/pkg/logger"
	"menu-service/pkg/slugutil"
	"menu-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RestaurantRequest defines the structure for restaurant creation and update requests
type RestaurantRequest struct {
	Name           *string                `json:"name"`
	Description    *string                `json:"description"`
	Logo           *string                `json:"logo"`
	ContactNumber  *string                `json:"contact_number"`
	Email          *string                `json:"email"`
	Address        *model.Address         `json:"address"`
	OperatingHours *[]model.OperatingHour `json:"operating_hours"`
	ThemeColor     *string                `json:"theme_color"`
}

// CreateRestaurant creates a restaurant and links it to the caller. A caller
// who already owns a restaurant gets the new one as their linked restaurant.
func CreateRestaurant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRestaurantOperation("create")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		log.Error("Failed to get user from context")
		prometheus.RecordAuthError("unauthorized_restaurant_creation")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication required"})
	}

	var req RestaurantRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse restaurant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}

	if req.Name == nil || *req.Name == "" {
		log.Error("Invalid restaurant data")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}

	number, err := model.NextSequence(tx, model.RestaurantSequence)
	if err != nil {
		tx.Rollback()
		log.Error("Failed to allocate restaurant number", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "restaurant creation failed"})
	}

	restaurant := model.Restaurant{
		RestaurantID: number,
		Name:         *req.Name,
		Slug: slugutil.MakeUnique(*req.Name, func(candidate string) bool {
			var count int64
			tx.Model(&model.Restaurant{}).Where("slug = ?", candidate).Count(&count)
			return count > 0
		}),
	}
	applyRestaurantFields(&restaurant, &req)

	if result := tx.Create(&restaurant); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create restaurant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "restaurant creation failed"})
	}

	// Link the new restaurant to the caller; last created wins
	if result := tx.Model(&model.User{}).Where("id = ?", user.ID).Update("restaurant_id", restaurant.ID); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to link restaurant to user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "user update failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "transaction commit failed"})
	}

	log.Info("Restaurant created",
		zap.String("name", restaurant.Name),
		zap.Uint("id", restaurant.ID),
		zap.Uint("restaurant_number", restaurant.RestaurantID),
		zap.String("slug", restaurant.Slug),
		zap.Uint("owner_id", user.ID))

	return c.JSON(http.StatusCreated, restaurant)
}

// GetRestaurant returns the caller's linked restaurant
func GetRestaurant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRestaurantOperation("get")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		log.Error("Failed to get user from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication required"})
	}

	if user.RestaurantID == nil {
		log.Warn("User has no linked restaurant", zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Restaurant not found"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var restaurant model.Restaurant
	if result := database.GetDB().First(&restaurant, *user.RestaurantID); result.Error != nil {
		log.Error("Restaurant not found",
			zap.Uint("restaurant_id", *user.RestaurantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Restaurant not found"})
	}

	return c.JSON(http.StatusOK, restaurant)
}

// GetRestaurantBySlug returns a restaurant by its public slug
func GetRestaurantBySlug(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRestaurantOperation("slug_lookup")
	slug := c.Param("slug")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var restaurant model.Restaurant
	if result := database.GetDB().Where("slug = ?", slug).First(&restaurant); result.Error != nil {
		log.Warn("Restaurant not found by slug", zap.String("slug", slug))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Restaurant not found"})
	}

	return c.JSON(http.StatusOK, restaurant)
}

// UpdateRestaurant applies a partial update to the caller's own restaurant
func UpdateRestaurant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRestaurantOperation("update")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		log.Error("Failed to get user from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		log.Warn("Invalid restaurant ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid restaurant ID"})
	}

	var req RestaurantRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse restaurant update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var restaurant model.Restaurant
	if result := database.GetDB().First(&restaurant, id); result.Error != nil {
		log.Warn("Restaurant not found for update", zap.Uint64("id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Restaurant not found"})
	}

	// Check if the restaurant belongs to the caller
	if user.RestaurantID == nil || *user.RestaurantID != restaurant.ID {
		log.Warn("Restaurant ownership mismatch",
			zap.Uint("restaurant_id", restaurant.ID),
			zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Not authorized"})
	}

	if req.Name != nil && *req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name is required"})
	}
	if req.Name != nil {
		restaurant.Name = *req.Name
	}
	applyRestaurantFields(&restaurant, &req)

	// Save refreshes UpdatedAt on every mutation
	if result := database.GetDB().Save(&restaurant); result.Error != nil {
		log.Error("Failed to update restaurant",
			zap.Uint("restaurant_id", restaurant.ID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update restaurant"})
	}

	log.Info("Restaurant updated",
		zap.Uint("restaurant_id", restaurant.ID),
		zap.String("name", restaurant.Name))

	return c.JSON(http.StatusOK, restaurant)
}

// GetRestaurantDishes returns the visible dishes of a restaurant for the
// public menu page
func GetRestaurantDishes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRestaurantOperation("public_dishes")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		log.Warn("Invalid restaurant ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid restaurant ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var dishes []model.Dish
	if result := database.GetDB().Where("restaurant_id = ? AND is_visible = ?", id, true).Find(&dishes); result.Error != nil {
		log.Error("Failed to list public dishes",
			zap.Uint64("restaurant_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to retrieve dishes"})
	}

	return c.JSON(http.StatusOK, dishes)
}

// applyRestaurantFields copies the optional request fields onto the model
func applyRestaurantFields(restaurant *model.Restaurant, req *RestaurantRequest) {
	if req.Description != nil {
		restaurant.Description = *req.Description
	}
	if req.Logo != nil {
		restaurant.Logo = *req.Logo
	}
	if req.ContactNumber != nil {
		restaurant.ContactNumber = *req.ContactNumber
	}
	if req.Email != nil {
		restaurant.Email = *req.Email
	}
	if req.Address != nil {
		restaurant.Address = *req.Address
	}
	if req.OperatingHours != nil {
		restaurant.OperatingHours = *req.OperatingHours
	}
	if req.ThemeColor != nil {
		restaurant.ThemeColor = *req.ThemeColor
	}
}
