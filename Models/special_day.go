package Models

import (
	"gorm.io/gorm"
)

const (
	SpecialDayWeekend  = "weekend"
	SpecialDayHoliday  = "holiday"
	SpecialDayPersonal = "personal"
	SpecialDayOther    = "other"
)

// SpecialDay marks a non-weekend calendar date as special. Saturdays and
// Sundays are special regardless of this table.
type SpecialDay struct {
	gorm.Model
	Date   string `json:"date" gorm:"not null;uniqueIndex"` // YYYY-MM-DD
	Name   string `json:"name" gorm:"not null"`
	Type   string `json:"type" gorm:"default:holiday"`
	Active bool   `json:"active" gorm:"default:true"`
}
