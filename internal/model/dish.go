package model

import "time"

// Dish represents a menu item belonging to exactly one restaurant.
// Dishes are hard-deleted, so there is no DeletedAt column.
type Dish struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"index;not null"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Price        float64   `json:"price" gorm:"not null"`
	Category     string    `json:"category" gorm:"type:varchar(100);not null"`
	Description  string    `json:"description" gorm:"type:text"`
	Image        string    `json:"image"`
	Model3D      bool      `json:"model3d"`
	Tags         []string  `json:"tags" gorm:"serializer:json"`
	IsVisible    bool      `json:"is_visible"`
	CreatedAt    time.Time `json:"created_at"`
}
