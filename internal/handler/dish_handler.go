package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"menu-service/internal/middleware"
	"menu-service/internal/model"
	"menu-service/pkg/database"
	"menu-service/pkg/logger"
	"menu-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DishRequest defines the structure for dish creation and update requests
type DishRequest struct {
	RestaurantID uint      `json:"restaurant_id"`
	Name         *string   `json:"name"`
	Price        *float64  `json:"price"`
	Category     *string   `json:"category"`
	Description  *string   `json:"description"`
	Image        *string   `json:"image"`
	Model3D      *bool     `json:"model3d"`
	Tags         *[]string `json:"tags"`
}

// GetDishes returns every dish of the caller's restaurant, hidden ones included
func GetDishes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDishOperation("list")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		log.Error("Failed to get user from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication required"})
	}

	if user.RestaurantID == nil {
		log.Warn("User has no linked restaurant", zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Restaurant not found"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var dishes []model.Dish
	if result := database.GetDB().Where("restaurant_id = ?", *user.RestaurantID).Find(&dishes); result.Error != nil {
		log.Error("Failed to list dishes",
			zap.Uint("restaurant_id", *user.RestaurantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to retrieve dishes"})
	}

	log.Info("Dishes retrieved", zap.Int("count", len(dishes)))
	return c.JSON(http.StatusOK, dishes)
}

// CreateDish creates a dish under the restaurant named in the request body.
// The route is publicly reachable and trusts the supplied restaurant id; the
// admin dashboard is the only intended caller.
func CreateDish(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDishOperation("create")

	var req DishRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse dish creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request data"})
	}

	if req.RestaurantID == 0 {
		log.Warn("Missing or malformed restaurant ID in dish creation")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid restaurantId format"})
	}

	if req.Name == nil || *req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name is required"})
	}
	if req.Category == nil || *req.Category == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "category is required"})
	}
	if req.Price == nil || *req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "price must be zero or greater"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var restaurant model.Restaurant
	if result := database.GetDB().First(&restaurant, req.RestaurantID); result.Error != nil {
		log.Warn("Restaurant not found for dish creation", zap.Uint("restaurant_id", req.RestaurantID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Restaurant not found"})
	}

	dish := model.Dish{
		RestaurantID: restaurant.ID,
		Name:         *req.Name,
		Price:        *req.Price,
		Category:     strings.TrimSpace(*req.Category),
		Model3D:      true,
		IsVisible:    true,
	}
	if req.Description != nil {
		dish.Description = *req.Description
	}
	if req.Image != nil {
		dish.Image = *req.Image
	}
	if req.Model3D != nil {
		dish.Model3D = *req.Model3D
	}
	if req.Tags != nil {
		dish.Tags = *req.Tags
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&dish); result.Error != nil {
		log.Error("Failed to create dish",
			zap.String("name", dish.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create dish"})
	}

	log.Info("Dish created",
		zap.Uint("dish_id", dish.ID),
		zap.String("name", dish.Name),
		zap.Uint("restaurant_id", dish.RestaurantID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Dish created successfully",
		"dish":    dish,
	})
}

// GetDish returns a single dish owned by the caller's restaurant
func GetDish(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDishOperation("get")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		log.Error("Failed to get user from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		log.Warn("Invalid dish ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid Dish ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var dish model.Dish
	if result := database.GetDB().First(&dish, id); result.Error != nil {
		log.Warn("Dish not found", zap.Uint64("dish_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Dish not found"})
	}

	// Check if the dish belongs to the caller's restaurant
	if user.RestaurantID == nil || dish.RestaurantID != *user.RestaurantID {
		log.Warn("Dish ownership mismatch",
			zap.Uint64("dish_id", id),
			zap.Uint("dish_restaurant_id", dish.RestaurantID))
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Not authorized"})
	}

	return c.JSON(http.StatusOK, dish)
}

// UpdateDish applies a partial update to a dish. Unlike GetDish and
// ToggleVisibility this operation is not tenant-scoped; only the bearer token
// gate protects it.
func UpdateDish(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDishOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		log.Warn("Invalid dish ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid Dish ID"})
	}

	var req DishRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse dish update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request data"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var dish model.Dish
	if result := database.GetDB().First(&dish, id); result.Error != nil {
		log.Warn("Dish not found for update", zap.Uint64("dish_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Dish not found"})
	}

	// Re-run field validation against the updated values
	if req.Name != nil {
		dish.Name = *req.Name
	}
	if req.Category != nil {
		dish.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		dish.Price = *req.Price
	}
	if dish.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name is required"})
	}
	if dish.Category == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "category is required"})
	}
	if dish.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "price must be zero or greater"})
	}

	if req.Description != nil {
		dish.Description = *req.Description
	}
	if req.Image != nil {
		dish.Image = *req.Image
	}
	if req.Model3D != nil {
		dish.Model3D = *req.Model3D
	}
	if req.Tags != nil {
		dish.Tags = *req.Tags
	}

	if result := database.GetDB().Save(&dish); result.Error != nil {
		log.Error("Failed to update dish",
			zap.Uint64("dish_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update dish"})
	}

	log.Info("Dish updated", zap.Uint64("dish_id", id), zap.String("name", dish.Name))
	return c.JSON(http.StatusOK, dish)
}

// DeleteDish permanently removes a dish. Like UpdateDish this operation is
// not tenant-scoped.
func DeleteDish(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDishOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		log.Warn("Invalid dish ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid Dish ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.Dish{}, id)
	if result.Error != nil {
		log.Error("Failed to delete dish",
			zap.Uint64("dish_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to delete dish"})
	}

	if result.RowsAffected == 0 {
		log.Warn("Dish not found for deletion", zap.Uint64("dish_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Dish not found"})
	}

	log.Info("Dish deleted", zap.Uint64("dish_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Dish deleted successfully"})
}

// ToggleVisibility flips a dish's public visibility flag
func ToggleVisibility(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDishOperation("toggle_visibility")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		log.Error("Failed to get user from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		log.Warn("Invalid dish ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid Dish ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var dish model.Dish
	if result := database.GetDB().First(&dish, id); result.Error != nil {
		log.Warn("Dish not found", zap.Uint64("dish_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Dish not found"})
	}

	// Check if the dish belongs to the caller's restaurant
	if user.RestaurantID == nil || dish.RestaurantID != *user.RestaurantID {
		log.Warn("Dish ownership mismatch",
			zap.Uint64("dish_id", id),
			zap.Uint("dish_restaurant_id", dish.RestaurantID))
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Not authorized"})
	}

	dish.IsVisible = !dish.IsVisible
	if result := database.GetDB().Model(&dish).Update("is_visible", dish.IsVisible); result.Error != nil {
		log.Error("Failed to toggle dish visibility",
			zap.Uint64("dish_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update dish"})
	}

	log.Info("Dish visibility toggled",
		zap.Uint64("dish_id", id),
		zap.Bool("is_visible", dish.IsVisible))

	return c.JSON(http.StatusOK, dish)
}
