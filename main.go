package main

import (
	"log"

	"Tracker/CronJobs"
	"Tracker/FiberConfig"
	"Tracker/Models"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using process environment")
	}

	Models.Connect()

	scheduler := CronJobs.NewFineScheduler(Models.DB, false)
	if err := scheduler.Start(); err != nil {
		log.Printf("Failed to start fine scheduler: %v", err)
	}

	FiberConfig.FiberConfig()
}
