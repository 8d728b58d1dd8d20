package Controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Tracker/Models"
	"Tracker/RuleEngine"
)

// DailyEntryController handles per-user-per-day task records
type DailyEntryController struct {
	DB        *gorm.DB
	TaskTypes *Models.TaskTypeStore
	Entries   *Models.DailyEntryStore
	Oracle    *RuleEngine.SpecialDayOracle
}

// NewDailyEntryController creates a new DailyEntryController
func NewDailyEntryController(db *gorm.DB) *DailyEntryController {
	return &DailyEntryController{
		DB:        db,
		TaskTypes: Models.NewTaskTypeStore(db),
		Entries:   Models.NewDailyEntryStore(db),
		Oracle:    &RuleEngine.SpecialDayOracle{Catalog: Models.NewSpecialDayStore(db)},
	}
}

func validDate(date string) bool {
	_, err := time.Parse(RuleEngine.DateLayout, date)
	return err == nil
}

// GetDailyEntry returns the entry for (user, date), creating it lazily
// with one zero-valued task per active task type.
func (d *DailyEntryController) GetDailyEntry(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	date := ctx.Params("date")
	if !validDate(date) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	activeTaskTypes, err := d.TaskTypes.FindActive()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve task types"})
	}

	entry, err := d.Entries.FindOrCreate(userID, date, activeTaskTypes)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load daily entry"})
	}

	return ctx.JSON(entry)
}

// GetDailyEntries returns a user's recent entries, newest first
func (d *DailyEntryController) GetDailyEntries(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	limit, err := strconv.Atoi(ctx.Query("limit", "30"))
	if err != nil || limit < 1 {
		limit = 30
	}

	entries, err := d.Entries.FindRecent(userID, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve daily entries"})
	}

	return ctx.JSON(entries)
}

type UpdateTaskInput struct {
	TaskTypeID uint        `json:"task_type_id"`
	Value      interface{} `json:"value"`
}

// UpdateTask records a new value for one task on one day and re-evaluates
// its completion with the rule in effect for that date.
func (d *DailyEntryController) UpdateTask(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	date := ctx.Params("date")
	if !validDate(date) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	var input UpdateTaskInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.TaskTypeID == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "task_type_id is required"})
	}

	taskType, err := d.TaskTypes.FindByID(input.TaskTypeID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve task type"})
	}
	if taskType == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task type not found"})
	}

	entry, err := d.Entries.FindByUserAndDate(userID, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Entry not found"})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load daily entry"})
	}

	// A finalized day already has its fine on the ledger; silent edits
	// underneath it would desync the two.
	if entry.FineCalculatedAt != nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Fines for this date are already calculated"})
	}

	var task *Models.TaskEntry
	for i := range entry.Tasks {
		if entry.Tasks[i].TaskTypeID == taskType.ID {
			task = &entry.Tasks[i]
			break
		}
	}
	if task == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found in entry"})
	}

	value, err := RuleEngine.CoerceValue(taskType.InputType, input.Value)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	specialDay := d.Oracle.IsSpecial(date)
	completed, err := RuleEngine.EvaluateTask(value, *taskType, specialDay)
	if err != nil {
		// A broken rule string is an authoring defect on the task type,
		// surfaced here instead of being swallowed.
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := d.Entries.SaveTaskResult(task.ID, value, completed, time.Now()); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save task"})
	}

	updated, err := d.Entries.FindByUserAndDate(userID, date)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload daily entry"})
	}

	return ctx.JSON(updated)
}
