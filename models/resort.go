package models

import "time"

// Resort is a bookable property (a "spot"). Code carries the initials used
// as the booking reference prefix.
type Resort struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Code      string    `gorm:"size:10;uniqueIndex" json:"code"`
	Address   string    `gorm:"type:text" json:"address"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Email     string    `gorm:"size:150" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
