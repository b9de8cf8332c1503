package models

import (
	"gorm.io/gorm"
)

// ReservationUnit links a reservation to one of the units it holds.
type ReservationUnit struct {
	gorm.Model
	ReservationID uint `gorm:"index;column:reservation_id" json:"reservation_id"`
	UnitID        uint `gorm:"index;column:unit_id" json:"unit_id"`

	Rate   float64 `gorm:"column:rate" json:"rate"`
	Nights int     `gorm:"column:nights;default:0" json:"nights,omitempty"`

	Reservation Reservation `gorm:"foreignKey:ReservationID;references:ID" json:"reservation,omitempty"`
	Unit        Unit        `gorm:"foreignKey:UnitID;references:ID" json:"unit,omitempty"`
}
