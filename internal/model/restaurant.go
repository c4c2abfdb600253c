package model

import (
	"time"

	"gorm.io/gorm"
)

// Address is the structured restaurant address, embedded into the restaurants table
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

// OperatingHour is one weekly schedule entry (Monday through Sunday)
type OperatingHour struct {
	Day       string `json:"day"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// Weekdays lists the valid values for OperatingHour.Day
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Restaurant represents a tenant account.
// ID is the database identifier; RestaurantID is a separate sequential public
// number allocated from the Sequence counter.
type Restaurant struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	RestaurantID   uint            `json:"restaurant_id" gorm:"uniqueIndex"`
	Name           string          `json:"name" gorm:"type:varchar(100);not null"`
	Description    string          `json:"description" gorm:"type:text"`
	Logo           string          `json:"logo"`
	ContactNumber  string          `json:"contact_number"`
	Email          string          `json:"email" gorm:"type:varchar(100)"`
	Address        Address         `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	OperatingHours []OperatingHour `json:"operating_hours" gorm:"serializer:json"`
	ThemeColor     string          `json:"theme_color" gorm:"type:varchar(20)"`
	Slug           string          `json:"slug" gorm:"type:varchar(120);uniqueIndex;not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
}

// DefaultOperatingHours returns the full Mon-Sun 09:00-22:00 schedule seeded
// for restaurants provisioned at admin registration
func DefaultOperatingHours() []OperatingHour {
	hours := make([]OperatingHour, 0, len(Weekdays))
	for _, day := range Weekdays {
		hours = append(hours, OperatingHour{Day: day, OpenTime: "09:00", CloseTime: "22:00"})
	}
	return hours
}
