package model

import "gorm.io/gorm"

// Sequence is a named monotonically increasing counter. It backs the public
// restaurant numbers, which must be strictly increasing and unique
// independently of the database primary key.
type Sequence struct {
	Name  string `json:"name" gorm:"primaryKey;type:varchar(50)"`
	Value uint   `json:"value" gorm:"not null"`
}

// RestaurantSequence is the counter name for public restaurant numbers
const RestaurantSequence = "restaurant_id"

// NextSequence atomically increments the named counter and returns the new
// value. It must be called inside the transaction that persists the record
// consuming the number; the row update takes a write lock so concurrent
// allocations serialize on the counter row.
func NextSequence(tx *gorm.DB, name string) (uint, error) {
	result := tx.Model(&Sequence{}).Where("name = ?", name).Update("value", gorm.Expr("value + 1"))
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected == 0 {
		// First allocation creates the counter row. A concurrent first
		// allocation loses on the primary key and fails its transaction.
		seq := Sequence{Name: name, Value: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}

	var seq Sequence
	if err := tx.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}
