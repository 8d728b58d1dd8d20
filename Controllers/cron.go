package Controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Tracker/Models"
	"Tracker/RuleEngine"
)

// CronController exposes the batch recalculation passes to the external
// scheduler. Both endpoints sit behind the shared-secret middleware and
// are safe against repeated delivery; the CAS guards in the stores make
// repeat runs no-ops.
type CronController struct {
	Recalculator *RuleEngine.Recalculator
}

// NewCronController creates a new CronController
func NewCronController(db *gorm.DB) *CronController {
	return &CronController{
		Recalculator: RuleEngine.NewRecalculator(
			Models.NewTaskTypeStore(db),
			Models.NewDailyEntryStore(db),
			Models.NewFineLedgerStore(db),
			Models.NewSpecialDayStore(db),
		),
	}
}

// targetDate resolves the date a trigger acts on: an explicit ?date=
// wins, otherwise ?target=today|yesterday (deployment wiring decides
// which the scheduler sends).
func targetDate(ctx *fiber.Ctx, fallback string) (string, error) {
	if date := ctx.Query("date"); date != "" {
		if !validDate(date) {
			return "", errors.New("invalid date, expected YYYY-MM-DD")
		}
		return date, nil
	}
	switch ctx.Query("target", fallback) {
	case "today":
		return RuleEngine.TodayIST(), nil
	case "yesterday":
		return RuleEngine.YesterdayIST(), nil
	}
	return "", errors.New("target must be today or yesterday")
}

// CalculateFines runs the main end-of-day pass
func (cr *CronController) CalculateFines(ctx *fiber.Ctx) error {
	date, err := targetDate(ctx, "today")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	report, err := cr.Recalculator.Run(date)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"message":   "Fines calculated successfully",
		"date":      date,
		"processed": report.Processed,
		"results":   report.Results,
		"errors":    report.Errors,
	})
}

// CalculateMorningJobs runs the dedicated same-day morning-jobs pass
func (cr *CronController) CalculateMorningJobs(ctx *fiber.Ctx) error {
	date, err := targetDate(ctx, "today")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	report, err := cr.Recalculator.RunMorningJobs(date)
	if err != nil {
		if errors.Is(err, RuleEngine.ErrTaskTypeNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Morning jobs task type not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"message":   "Morning jobs fines calculated successfully",
		"date":      date,
		"processed": report.Processed,
		"results":   report.Results,
		"errors":    report.Errors,
	})
}
