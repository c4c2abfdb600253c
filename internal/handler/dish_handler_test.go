package handler

import (
	"fmt"
	"net/http"
	"testing"

	"menu-service/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDish(t *testing.T) {
	db := setupTest(t)
	resp := registerAdmin(t, "Ana", "ana@example.com")

	c, rec := newJSONContext(t, http.MethodPost, "/api/dishes", echo.Map{
		"restaurant_id": *resp.User.RestaurantID,
		"name":          "Pad Thai",
		"price":         11.9,
		"category":      " Mains ",
		"tags":          []string{"spicy", "vegetarian"},
	})
	require.NoError(t, CreateDish(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Message string     `json:"message"`
		Dish    model.Dish `json:"dish"`
	}
	decodeJSON(t, rec, &body)
	assert.Equal(t, "Dish created successfully", body.Message)
	assert.Equal(t, "Pad Thai", body.Dish.Name)
	assert.Equal(t, "Mains", body.Dish.Category)
	assert.Equal(t, []string{"spicy", "vegetarian"}, body.Dish.Tags)
	// AR model flag and visibility default to on
	assert.True(t, body.Dish.Model3D)
	assert.True(t, body.Dish.IsVisible)

	var stored model.Dish
	require.NoError(t, db.First(&stored, body.Dish.ID).Error)
	assert.True(t, stored.Model3D)
}

func TestCreateDishExplicitFlagsKept(t *testing.T) {
	db := setupTest(t)
	resp := registerAdmin(t, "Ana", "ana@example.com")

	c, rec := newJSONContext(t, http.MethodPost, "/api/dishes", echo.Map{
		"restaurant_id": *resp.User.RestaurantID,
		"name":          "Plain Rice",
		"price":         3.0,
		"category":      "Sides",
		"model3d":       false,
	})
	require.NoError(t, CreateDish(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Dish model.Dish `json:"dish"`
	}
	decodeJSON(t, rec, &body)

	var stored model.Dish
	require.NoError(t, db.First(&stored, body.Dish.ID).Error)
	assert.False(t, stored.Model3D)
}

func TestCreateDishValidation(t *testing.T) {
	db := setupTest(t)
	resp := registerAdmin(t, "Ana", "ana@example.com")
	restaurantID := *resp.User.RestaurantID

	cases := []struct {
		name string
		body echo.Map
		code int
	}{
		{"missing restaurant id", echo.Map{"name": "X", "price": 1.0, "category": "Mains"}, http.StatusBadRequest},
		{"unknown restaurant", echo.Map{"restaurant_id": 999, "name": "X", "price": 1.0, "category": "Mains"}, http.StatusNotFound},
		{"missing name", echo.Map{"restaurant_id": restaurantID, "price": 1.0, "category": "Mains"}, http.StatusBadRequest},
		{"missing category", echo.Map{"restaurant_id": restaurantID, "name": "X", "price": 1.0}, http.StatusBadRequest},
		{"negative price", echo.Map{"restaurant_id": restaurantID, "name": "X", "price": -5.0, "category": "Mains"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newJSONContext(t, http.MethodPost, "/api/dishes", tc.body)
			require.NoError(t, CreateDish(c))
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}

	// Nothing was persisted by the rejected requests
	var count int64
	require.NoError(t, db.Model(&model.Dish{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetDishes(t *testing.T) {
	db := setupTest(t)
	resp := registerAdmin(t, "Ana", "ana@example.com")
	restaurantID := *resp.User.RestaurantID

	visible := model.Dish{RestaurantID: restaurantID, Name: "Tacos", Price: 9, Category: "Mains", IsVisible: true}
	hidden := model.Dish{RestaurantID: restaurantID, Name: "Secret", Price: 20, Category: "Mains", IsVisible: false}
	require.NoError(t, db.Create(&visible).Error)
	require.NoError(t, db.Create(&hidden).Error)

	c, rec := newJSONContext(t, http.MethodGet, "/api/dishes", nil)
	c.Set("user", loadUser(t, db, resp.User.ID))
	require.NoError(t, GetDishes(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// The owner's list includes hidden dishes
	var dishes []model.Dish
	decodeJSON(t, rec, &dishes)
	assert.Len(t, dishes, 2)
}

func TestGetDishesNoRestaurant(t *testing.T) {
	db := setupTest(t)
	user := model.User{Username: "viewer", Email: "viewer@example.com", Password: "x", Role: "viewer"}
	require.NoError(t, db.Create(&user).Error)

	c, rec := newJSONContext(t, http.MethodGet, "/api/dishes", nil)
	c.Set("user", &user)
	require.NoError(t, GetDishes(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDishOwnership(t *testing.T) {
	db := setupTest(t)
	ana := registerAdmin(t, "Ana", "ana@example.com")
	ben := registerAdmin(t, "Ben", "ben@example.com")

	dish := model.Dish{RestaurantID: *ana.User.RestaurantID, Name: "Tacos", Price: 9, Category: "Mains", IsVisible: true}
	require.NoError(t, db.Create(&dish).Error)

	c, rec := newJSONContext(t, http.MethodGet, "/api/dishes/1", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(dish.ID))
	c.Set("user", loadUser(t, db, ana.User.ID))
	require.NoError(t, GetDish(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newJSONContext(t, http.MethodGet, "/api/dishes/1", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(dish.ID))
	c.Set("user", loadUser(t, db, ben.User.ID))
	require.NoError(t, GetDish(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetDishErrors(t *testing.T) {
	db := setupTest(t)
	resp := registerAdmin(t, "Ana", "ana@example.com")
	user := loadUser(t, db, resp.User.ID)

	c, rec := newJSONContext(t, http.MethodGet, "/api/dishes/abc", nil)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	c.Set("user", user)
	require.NoError(t, GetDish(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newJSONContext(t, http.MethodGet, "/api/dishes/999", nil)
	c.SetParamNames("id")
	c.SetParamValues("999")
	c.Set("user", user)
	require.NoError(t, GetDish(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateDish(t *testing.T) {
	db := setupTest(t)
	ana := registerAdmin(t, "Ana", "ana@example.com")

	dish := model.Dish{RestaurantID: *ana.User.RestaurantID, Name: "Tacos", Price: 9, Category: "Mains", IsVisible: true}
	require.NoError(t, db.Create(&dish).Error)

	c, rec := newJSONContext(t, http.MethodPut, "/api/dishes/1", echo.Map{
		"price":       14.5,
		"description": "Now with extra salsa",
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(dish.ID))
	require.NoError(t, UpdateDish(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored model.Dish
	require.NoError(t, db.First(&stored, dish.ID).Error)
	assert.Equal(t, 14.5, stored.Price)
	assert.Equal(t, "Now with extra salsa", stored.Description)
	assert.Equal(t, "Tacos", stored.Name)
}

func TestUpdateDishRejectsInvalidMerge(t *testing.T) {
	db := setupTest(t)
	ana := registerAdmin(t, "Ana", "ana@example.com")

	dish := model.Dish{RestaurantID: *ana.User.RestaurantID, Name: "Tacos", Price: 9, Category: "Mains", IsVisible: true}
	require.NoError(t, db.Create(&dish).Error)

	c, rec := newJSONContext(t, http.MethodPut, "/api/dishes/1", echo.Map{"price": -1.0})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(dish.ID))
	require.NoError(t, UpdateDish(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var stored model.Dish
	require.NoError(t, db.First(&stored, dish.ID).Error)
	assert.Equal(t, 9.0, stored.Price)
}

func TestDeleteDish(t *testing.T) {
	db := setupTest(t)
	ana := registerAdmin(t, "Ana", "ana@example.com")

	dish := model.Dish{RestaurantID: *ana.User.RestaurantID, Name: "Tacos", Price: 9, Category: "Mains", IsVisible: true}
	require.NoError(t, db.Create(&dish).Error)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/dishes/1", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(dish.ID))
	require.NoError(t, DeleteDish(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, db.Model(&model.Dish{}).Count(&count).Error)
	assert.Zero(t, count)

	// A second delete of the same id answers 404
	c, rec = newJSONContext(t, http.MethodDelete, "/api/dishes/1", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(dish.ID))
	require.NoError(t, DeleteDish(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleVisibility(t *testing.T) {
	db := setupTest(t)
	ana := registerAdmin(t, "Ana", "ana@example.com")
	user := loadUser(t, db, ana.User.ID)

	dish := model.Dish{RestaurantID: *ana.User.RestaurantID, Name: "Tacos", Price: 9, Category: "Mains", IsVisible: true}
	require.NoError(t, db.Create(&dish).Error)

	toggle := func() *model.Dish {
		c, rec := newJSONContext(t, http.MethodPut, "/api/dishes/1/toggle-visibility", nil)
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(dish.ID))
		c.Set("user", user)
		require.NoError(t, ToggleVisibility(c))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stored model.Dish
		require.NoError(t, db.First(&stored, dish.ID).Error)
		return &stored
	}

	assert.False(t, toggle().IsVisible)
	// Toggling twice round-trips back to visible
	assert.True(t, toggle().IsVisible)
}

func TestToggleVisibilityNotOwner(t *testing.T) {
	db := setupTest(t)
	ana := registerAdmin(t, "Ana", "ana@example.com")
	ben := registerAdmin(t, "Ben", "ben@example.com")

	dish := model.Dish{RestaurantID: *ana.User.RestaurantID, Name: "Tacos", Price: 9, Category: "Mains", IsVisible: true}
	require.NoError(t, db.Create(&dish).Error)

	c, rec := newJSONContext(t, http.MethodPut, "/api/dishes/1/toggle-visibility", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(dish.ID))
	c.Set("user", loadUser(t, db, ben.User.ID))
	require.NoError(t, ToggleVisibility(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var stored model.Dish
	require.NoError(t, db.First(&stored, dish.ID).Error)
	assert.True(t, stored.IsVisible)
}
