package Models

import (
	"gorm.io/gorm"
)

// Input types a task type can record.
const (
	InputInteger = "integer"
	InputDecimal = "decimal"
	InputBoolean = "boolean"
)

// TaskType is a rule definition, not a per-day fact. Task types are never
// deleted, only deactivated, because historical daily entries keep
// referencing them.
type TaskType struct {
	gorm.Model
	Name      string `json:"name" gorm:"not null"`
	Key       string `json:"key" gorm:"not null;uniqueIndex"`
	InputType string `json:"input_type" gorm:"not null"`
	// CompletionRule is a boolean expression over "value", e.g. "value >= 2".
	CompletionRule string `json:"completion_rule" gorm:"not null"`
	// SpecialDayCompletionRule, when non-empty, replaces CompletionRule on
	// weekends and marked special days.
	SpecialDayCompletionRule string  `json:"special_day_completion_rule"`
	FineIfFailed             float64 `json:"fine_if_failed" gorm:"default:100"`
	Active                   bool    `json:"active" gorm:"default:true"`
}
