package Controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Tracker/Models"
	"Tracker/RuleEngine"
)

var validate = validator.New()

// TaskTypeController handles the rule-definition catalog endpoints
type TaskTypeController struct {
	DB *gorm.DB
}

// NewTaskTypeController creates a new TaskTypeController
func NewTaskTypeController(db *gorm.DB) *TaskTypeController {
	return &TaskTypeController{DB: db}
}

type TaskTypeInput struct {
	Name                     string  `json:"name" validate:"required"`
	Key                      string  `json:"key" validate:"required"`
	InputType                string  `json:"input_type" validate:"required,oneof=integer decimal boolean"`
	CompletionRule           string  `json:"completion_rule" validate:"required"`
	SpecialDayCompletionRule string  `json:"special_day_completion_rule"`
	FineIfFailed             float64 `json:"fine_if_failed" validate:"gte=0"`
}

// validateRules checks both rule strings against the comparison grammar,
// so authoring defects surface to the administrator instead of at batch
// time.
func validateRules(input TaskTypeInput) error {
	if err := RuleEngine.ValidateRule(input.CompletionRule); err != nil {
		return err
	}
	if input.SpecialDayCompletionRule != "" {
		return RuleEngine.ValidateRule(input.SpecialDayCompletionRule)
	}
	return nil
}

// GetTaskTypes retrieves all active task types
func (t *TaskTypeController) GetTaskTypes(ctx *fiber.Ctx) error {
	var taskTypes []Models.TaskType
	result := t.DB.Where("active = ?", true).Order("created_at asc").Find(&taskTypes)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve task types"})
	}
	return ctx.JSON(taskTypes)
}

// CreateTaskType creates a new task type
func (t *TaskTypeController) CreateTaskType(ctx *fiber.Ctx) error {
	var input TaskTypeInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validateRules(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	taskType := Models.TaskType{
		Name:                     input.Name,
		Key:                      input.Key,
		InputType:                input.InputType,
		CompletionRule:           input.CompletionRule,
		SpecialDayCompletionRule: input.SpecialDayCompletionRule,
		FineIfFailed:             input.FineIfFailed,
		Active:                   true,
	}
	if taskType.FineIfFailed == 0 {
		taskType.FineIfFailed = 100
	}

	result := t.DB.Create(&taskType)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "UNIQUE constraint") ||
			strings.Contains(result.Error.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A task type with this key already exists",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create task type",
		})
	}

	return ctx.Status(fiber.StatusCreated).JSON(taskType)
}

// UpdateTaskType updates an existing task type
func (t *TaskTypeController) UpdateTaskType(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task type ID"})
	}

	var taskType Models.TaskType
	result := t.DB.First(&taskType, id)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task type not found"})
	}

	var input TaskTypeInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validateRules(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	t.DB.Model(&taskType).Updates(map[string]interface{}{
		"name":                        input.Name,
		"key":                         input.Key,
		"input_type":                  input.InputType,
		"completion_rule":             input.CompletionRule,
		"special_day_completion_rule": input.SpecialDayCompletionRule,
		"fine_if_failed":              input.FineIfFailed,
	})

	return ctx.JSON(taskType)
}

// DeactivateTaskType soft deletes a task type. Historical daily entries
// keep referencing it, so the row itself is never removed.
func (t *TaskTypeController) DeactivateTaskType(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task type ID"})
	}

	var taskType Models.TaskType
	result := t.DB.First(&taskType, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task type not found"})
	}
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve task type"})
	}

	t.DB.Model(&taskType).Update("active", false)

	return ctx.JSON(fiber.Map{"message": "Task type deactivated successfully"})
}
