package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a dashboard account stored in the database
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Username     string         `json:"username" gorm:"type:varchar(100)"`
	Email        string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password     string         `json:"-" gorm:"type:varchar(255)"`
	Role         string         `json:"role" gorm:"type:varchar(20)"`
	RestaurantID *uint          `json:"restaurant_id,omitempty" gorm:"index"`
	Restaurant   *Restaurant    `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
