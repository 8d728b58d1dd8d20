package Controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Tracker/Models"
	"Tracker/RuleEngine"
)

// SpecialDayController handles the explicit calendar overrides. Weekends
// are special without any row here; this catalog only adds non-weekend
// dates.
type SpecialDayController struct {
	DB *gorm.DB
}

// NewSpecialDayController creates a new SpecialDayController
func NewSpecialDayController(db *gorm.DB) *SpecialDayController {
	return &SpecialDayController{DB: db}
}

type SpecialDayInput struct {
	Date string `json:"date" validate:"required"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"omitempty,oneof=weekend holiday personal other"`
}

// GetSpecialDays lists the catalog, oldest first
func (s *SpecialDayController) GetSpecialDays(ctx *fiber.Ctx) error {
	query := s.DB.Order("date asc")
	if ctx.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var days []Models.SpecialDay
	if err := query.Find(&days).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve special days"})
	}
	return ctx.JSON(days)
}

// CreateSpecialDay adds one explicit special date
func (s *SpecialDayController) CreateSpecialDay(ctx *fiber.Ctx) error {
	var input SpecialDayInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if !validDate(input.Date) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	day := Models.SpecialDay{
		Date:   input.Date,
		Name:   input.Name,
		Type:   input.Type,
		Active: true,
	}
	if day.Type == "" {
		day.Type = Models.SpecialDayHoliday
	}

	if err := s.DB.Create(&day).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A special day with this date already exists",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create special day"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(day)
}

// UpdateSpecialDay edits name/type/active of one catalog row
func (s *SpecialDayController) UpdateSpecialDay(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid special day ID"})
	}

	var day Models.SpecialDay
	result := s.DB.First(&day, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Special day not found"})
	}
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve special day"})
	}

	var input struct {
		Name   *string `json:"name"`
		Type   *string `json:"type"`
		Active *bool   `json:"active"`
	}
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Type != nil {
		updates["type"] = *input.Type
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if len(updates) > 0 {
		s.DB.Model(&day).Updates(updates)
	}

	return ctx.JSON(day)
}

// DeactivateSpecialDay soft toggles a date off
func (s *SpecialDayController) DeactivateSpecialDay(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid special day ID"})
	}

	var day Models.SpecialDay
	result := s.DB.First(&day, id)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Special day not found"})
	}

	s.DB.Model(&day).Update("active", false)

	return ctx.JSON(fiber.Map{"message": "Special day deactivated successfully"})
}

// GenerateWeekends lists every Saturday and Sunday between two dates as
// catalog rows. The oracle treats weekends as special without these rows;
// seeding them only makes the calendar visible in the catalog UI.
func GenerateWeekends(start, end time.Time) []Models.SpecialDay {
	var weekends []Models.SpecialDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			continue
		}
		weekends = append(weekends, Models.SpecialDay{
			Date:   d.Format(RuleEngine.DateLayout),
			Name:   wd.String(),
			Type:   Models.SpecialDayWeekend,
			Active: true,
		})
	}
	return weekends
}

type SeedWeekendsInput struct {
	Months        int  `json:"months"`
	ClearExisting bool `json:"clear_existing"`
}

// SeedWeekends populates the catalog with upcoming weekend dates
func (s *SpecialDayController) SeedWeekends(ctx *fiber.Ctx) error {
	input := SeedWeekendsInput{Months: 6, ClearExisting: true}
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&input); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}
	if input.Months < 1 {
		input.Months = 6
	}

	today := time.Now().In(RuleEngine.IST)
	weekends := GenerateWeekends(today, today.AddDate(0, input.Months, 0))

	deleted := int64(0)
	if input.ClearExisting {
		result := s.DB.Unscoped().Where("type = ?", Models.SpecialDayWeekend).Delete(&Models.SpecialDay{})
		deleted = result.RowsAffected
	}

	inserted := 0
	for _, weekend := range weekends {
		day := weekend
		if err := s.DB.Create(&day).Error; err != nil {
			// Duplicate dates are skipped silently.
			continue
		}
		inserted++
	}

	return ctx.JSON(fiber.Map{
		"message": "Seeded weekend dates",
		"stats": fiber.Map{
			"generated": len(weekends),
			"deleted":   deleted,
			"inserted":  inserted,
			"skipped":   len(weekends) - inserted,
		},
		"from": today.Format(RuleEngine.DateLayout),
		"to":   today.AddDate(0, input.Months, 0).Format(RuleEngine.DateLayout),
	})
}

// PreviewWeekends shows what SeedWeekends would generate
func (s *SpecialDayController) PreviewWeekends(ctx *fiber.Ctx) error {
	months, err := strconv.Atoi(ctx.Query("months", "6"))
	if err != nil || months < 1 {
		months = 6
	}

	today := time.Now().In(RuleEngine.IST)
	weekends := GenerateWeekends(today, today.AddDate(0, months, 0))

	preview := make([]string, 0, len(weekends))
	for _, weekend := range weekends {
		preview = append(preview, weekend.Date+" ("+weekend.Name+")")
	}

	return ctx.JSON(fiber.Map{
		"count":    len(weekends),
		"from":     today.Format(RuleEngine.DateLayout),
		"to":       today.AddDate(0, months, 0).Format(RuleEngine.DateLayout),
		"weekends": preview,
	})
}
