package models

import (
	"gorm.io/gorm"
)

const (
	UnitKindRoom = "room"
	UnitKindTent = "tent"
)

// Unit is an individually bookable resource, a room or a tent. Occupancy is
// exclusive per date range.
type Unit struct {
	gorm.Model

	ResortID uint   `gorm:"index;column:resort_id" json:"resort_id"`
	Kind     string `gorm:"size:20;default:room" json:"kind"`
	Number   string `gorm:"column:unit_number;uniqueIndex;type:varchar(50)" json:"unitNumber"`
	Name     string `json:"name"`

	Rate         float64 `json:"rate"`
	MaxOccupancy int     `gorm:"column:max_occupancy" json:"maxOccupancy"`
	Enabled      bool    `gorm:"default:true" json:"enabled"`
	Description  string  `gorm:"type:text" json:"description"`

	Resort Resort `gorm:"foreignKey:ResortID" json:"resort,omitempty"`
}
