package models

import "time"

// RefundPolicy maps "days before check-in" to a refundable percentage.
// The applicable row is the one with the largest DaysBefore that is still
// <= the actual notice given.
type RefundPolicy struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DaysBefore int       `gorm:"column:days_before;uniqueIndex" json:"days_before"`
	Percent    int       `gorm:"column:percent" json:"percent"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
