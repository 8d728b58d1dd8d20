package Models

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "database.db"
	}

	connection, err := gorm.Open(sqlite.Open(dbPath))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = connection

	// 1. Base tables first
	DB.AutoMigrate(
		&User{},
		&TaskType{},
		&SpecialDay{},
	)

	// 2. Then tables with foreign key relationships
	DB.AutoMigrate(
		&DailyEntry{},
		&TaskEntry{}, // Depends on DailyEntry and TaskType
		&FineLedger{},
	)

	seedDefaultTaskTypes(DB)
}

// seedDefaultTaskTypes inserts the initial rule catalog on first boot.
// An existing catalog is never touched.
func seedDefaultTaskTypes(db *gorm.DB) {
	var count int64
	if err := db.Model(&TaskType{}).Count(&count).Error; err != nil {
		log.Printf("Error counting task types: %v", err)
		return
	}
	if count > 0 {
		return
	}

	defaults := []TaskType{
		{
			Name:                     "Study Hours",
			Key:                      "study_hours",
			InputType:                InputDecimal,
			CompletionRule:           "value >= 2",
			SpecialDayCompletionRule: "value >= 1",
			FineIfFailed:             100,
			Active:                   true,
		},
		{
			Name:                     "Jobs Applied",
			Key:                      "jobs_applied",
			InputType:                InputInteger,
			CompletionRule:           "value >= 5",
			SpecialDayCompletionRule: "value >= 2",
			FineIfFailed:             100,
			Active:                   true,
		},
		{
			Name:           "Morning Jobs Applied",
			Key:            "morning_jobs_applied",
			InputType:      InputInteger,
			CompletionRule: "value >= 3",
			FineIfFailed:   100,
			Active:         true,
		},
	}

	if err := db.Create(&defaults).Error; err != nil {
		log.Printf("Error seeding default task types: %v", err)
		return
	}
	log.Printf("Seeded %d default task types", len(defaults))
}
