package FiberConfig

import (
	"log"
	"os"

	"Tracker/Controllers"
	"Tracker/Models"
	"Tracker/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	taskTypeController := Controllers.NewTaskTypeController(db)
	dailyEntryController := Controllers.NewDailyEntryController(db)
	fineLedgerController := Controllers.NewFineLedgerController(db)
	specialDayController := Controllers.NewSpecialDayController(db)
	statsController := Controllers.NewStatsController(db)
	cronController := Controllers.NewCronController(db)

	// API group
	api := app.Group("/api")

	// Auth routes
	api.Post("/Login", Controllers.Login)
	api.Post("/Logout", Controllers.Logout)
	api.Get("/User", middleware.Verify(0), Controllers.CurrentUser)
	api.Post("/RegisterUser", middleware.Verify(4), Controllers.RegisterUser)

	// Task type routes (rule catalog)
	taskTypes := api.Group("/task-types")
	taskTypes.Get("/", taskTypeController.GetTaskTypes)
	taskTypes.Post("/", middleware.Verify(3), taskTypeController.CreateTaskType)
	taskTypes.Put("/:id", middleware.Verify(3), taskTypeController.UpdateTaskType)
	taskTypes.Delete("/:id", middleware.Verify(3), taskTypeController.DeactivateTaskType)

	// Daily entry routes
	dailyEntries := api.Group("/daily-entries")
	dailyEntries.Get("/:userId", dailyEntryController.GetDailyEntries)
	dailyEntries.Get("/:userId/:date", dailyEntryController.GetDailyEntry)
	dailyEntries.Patch("/:userId/:date/update-task", dailyEntryController.UpdateTask)

	// Fine ledger routes
	fineLedgers := api.Group("/fine-ledgers")
	fineLedgers.Get("/:userId", fineLedgerController.GetFineLedgers)
	fineLedgers.Get("/:userId/export", fineLedgerController.ExportFineLedgers)
	fineLedgers.Patch("/:userId/:date", middleware.Verify(3), fineLedgerController.UpdateFineLedger)

	// Special day routes
	specialDays := api.Group("/special-days")
	specialDays.Get("/", specialDayController.GetSpecialDays)
	specialDays.Post("/", middleware.Verify(3), specialDayController.CreateSpecialDay)
	specialDays.Put("/:id", middleware.Verify(3), specialDayController.UpdateSpecialDay)
	specialDays.Delete("/:id", middleware.Verify(3), specialDayController.DeactivateSpecialDay)
	api.Post("/admin/seed-weekends", middleware.Verify(4), specialDayController.SeedWeekends)
	api.Get("/admin/seed-weekends", middleware.Verify(4), specialDayController.PreviewWeekends)

	// Stats routes
	stats := api.Group("/stats")
	stats.Get("/:userId/summary", statsController.Summary)
	stats.Get("/:userId/streak", statsController.Streak)
	stats.Get("/:userId/fines", statsController.Fines)

	// Batch trigger routes for the external scheduler
	cronRoutes := api.Group("/cron", middleware.VerifyCronSecret())
	cronRoutes.Post("/calculate-fines", cronController.CalculateFines)
	cronRoutes.Post("/calculate-morning-jobs", cronController.CalculateMorningJobs)
}

func FiberConfig() {
	log.Println("Server Up...")
	app := fiber.New()

	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupRoutes(app, Models.DB)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Fatal(app.Listen(":" + port))
}
