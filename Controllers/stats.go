package Controllers

import (
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Tracker/Models"
	"Tracker/RuleEngine"
)

// StatsController serves the dashboard aggregates
type StatsController struct {
	DB      *gorm.DB
	Entries *Models.DailyEntryStore
	Ledgers *Models.FineLedgerStore
}

// NewStatsController creates a new StatsController
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{
		DB:      db,
		Entries: Models.NewDailyEntryStore(db),
		Ledgers: Models.NewFineLedgerStore(db),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// taskTotal sums one task type's values across entries, with a separate
// total for entries on or after the cutoff date.
func taskTotal(entries []Models.DailyEntry, taskTypeKey, cutoff string) (total, recent float64) {
	for _, entry := range entries {
		for _, task := range entry.Tasks {
			if task.TaskType.Key != taskTypeKey {
				continue
			}
			total += task.Value
			if entry.Date >= cutoff {
				recent += task.Value
			}
		}
	}
	return total, recent
}

// streaks counts runs of zero-fine days over entries sorted newest first:
// current is the run touching the newest entry, longest the best run
// anywhere.
func streaks(entries []Models.DailyEntry) (current, longest int) {
	for _, entry := range entries {
		if entry.DailyFine != 0 {
			break
		}
		current++
	}
	run := 0
	for _, entry := range entries {
		if entry.DailyFine == 0 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return current, longest
}

// Summary returns all dashboard numbers in one call
func (s *StatsController) Summary(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")

	entries, err := s.Entries.FindRecent(userID, 0)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve entries"})
	}
	ledgers, err := s.Ledgers.FindByUser(userID, "", 0)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve ledgers"})
	}

	cutoff := time.Now().In(RuleEngine.IST).AddDate(0, 0, -7).Format(RuleEngine.DateLayout)
	totalStudy, recentStudy := taskTotal(entries, "study_hours", cutoff)
	totalJobs, recentJobs := taskTotal(entries, "jobs_applied", cutoff)

	var totalFines, unpaidFines float64
	for _, ledger := range ledgers {
		totalFines += ledger.TotalFine
		if ledger.PaymentStatus == Models.PaymentStatusUnpaid {
			unpaidFines += ledger.TotalFine
		}
	}

	current, longest := streaks(entries)

	return ctx.JSON(fiber.Map{
		"study_hours": fiber.Map{
			"total":       round1(totalStudy),
			"last_7_days": round1(recentStudy),
		},
		"jobs_applied": fiber.Map{
			"total":       int(totalJobs),
			"last_7_days": int(recentJobs),
		},
		"fines": fiber.Map{
			"total":  totalFines,
			"unpaid": unpaidFines,
		},
		"streak": fiber.Map{
			"current": current,
			"longest": longest,
		},
	})
}

// Streak reports the zero-fine day streaks in detail
func (s *StatsController) Streak(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")

	entries, err := s.Entries.FindRecent(userID, 0)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve entries"})
	}
	if len(entries) == 0 {
		return ctx.JSON(fiber.Map{
			"current_streak": 0,
			"longest_streak": 0,
			"is_active":      false,
		})
	}

	current, longest := streaks(entries)

	var streakStart, lastFineDate string
	if current > 0 {
		streakStart = entries[current-1].Date
	}
	for _, entry := range entries {
		if entry.DailyFine > 0 {
			lastFineDate = entry.Date
			break
		}
	}

	return ctx.JSON(fiber.Map{
		"current_streak":    current,
		"longest_streak":    longest,
		"streak_start_date": streakStart,
		"last_fine_date":    lastFineDate,
		"is_active":         entries[0].DailyFine == 0,
	})
}

// Fines reports total, paid and unpaid fine amounts
func (s *StatsController) Fines(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")

	ledgers, err := s.Ledgers.FindByUser(userID, "", 0)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve ledgers"})
	}

	var total, unpaid, paid float64
	for _, ledger := range ledgers {
		total += ledger.TotalFine
		if ledger.PaymentStatus == Models.PaymentStatusUnpaid {
			unpaid += ledger.TotalFine
		} else {
			paid += ledger.TotalFine
		}
	}

	return ctx.JSON(fiber.Map{
		"total":  total,
		"unpaid": unpaid,
		"paid":   paid,
		"days":   len(ledgers),
	})
}
