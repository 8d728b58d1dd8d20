package Models

import (
	"time"

	"gorm.io/gorm"
)

// DailyEntry records one user's task values for one calendar date.
// Exactly one row exists per (user, date); it is created lazily on first
// access and finalized once by the fine recalculation pass.
type DailyEntry struct {
	gorm.Model
	User  string      `json:"user" gorm:"not null;uniqueIndex:idx_entry_user_date"`
	Date  string      `json:"date" gorm:"not null;uniqueIndex:idx_entry_user_date"` // YYYY-MM-DD
	Tasks []TaskEntry `json:"tasks" gorm:"foreignKey:DailyEntryID"`
	// DailyFine is the finalized total for the day, 0..200.
	DailyFine float64 `json:"daily_fine" gorm:"default:0"`
	// FineCalculatedAt is null until the batch pass claims the entry.
	FineCalculatedAt *time.Time `json:"fine_calculated_at"`
}

// TaskEntry is one task's recorded value within a daily entry.
type TaskEntry struct {
	gorm.Model
	DailyEntryID uint     `json:"daily_entry_id" gorm:"not null;index"`
	TaskTypeID   uint     `json:"task_type_id" gorm:"not null;index"`
	TaskType     TaskType `json:"task_type"`
	// Value semantics follow the task type's input type; booleans are
	// stored as 0/1.
	Value     float64    `json:"value" gorm:"default:0"`
	Completed bool       `json:"completed" gorm:"default:false"`
	MarkedAt  *time.Time `json:"marked_at"`
	// FineAppliedAt guards the dedicated morning-jobs pass against
	// charging the same task twice.
	FineAppliedAt *time.Time `json:"fine_applied_at"`
}
