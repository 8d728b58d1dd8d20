package Controllers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"Tracker/Models"
)

// FineLedgerController handles the durable fine records
type FineLedgerController struct {
	DB      *gorm.DB
	Ledgers *Models.FineLedgerStore
}

// NewFineLedgerController creates a new FineLedgerController
func NewFineLedgerController(db *gorm.DB) *FineLedgerController {
	return &FineLedgerController{DB: db, Ledgers: Models.NewFineLedgerStore(db)}
}

// GetFineLedgers lists a user's ledger rows, newest first
func (f *FineLedgerController) GetFineLedgers(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	limit, err := strconv.Atoi(ctx.Query("limit", "30"))
	if err != nil || limit < 1 {
		limit = 30
	}
	status := ctx.Query("status")
	if status != "" && status != Models.PaymentStatusPaid && status != Models.PaymentStatusUnpaid {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be paid or unpaid"})
	}

	ledgers, err := f.Ledgers.FindByUser(userID, status, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve fine ledgers"})
	}

	return ctx.JSON(ledgers)
}

type UpdateLedgerInput struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=paid unpaid"`
	Notes         string `json:"notes"`
}

// UpdateFineLedger is the administrative correction of payment status and
// notes; totals are only ever written by the recalculation passes.
func (f *FineLedgerController) UpdateFineLedger(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	date := ctx.Params("date")

	var input UpdateLedgerInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var ledger Models.FineLedger
	result := f.DB.Where("user = ? AND date = ?", userID, date).First(&ledger)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Ledger not found"})
	}
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve ledger"})
	}

	f.DB.Model(&ledger).Updates(map[string]interface{}{
		"payment_status": input.PaymentStatus,
		"notes":          input.Notes,
	})

	return ctx.JSON(ledger)
}

// ExportFineLedgers writes a user's full ledger as an xlsx download
func (f *FineLedgerController) ExportFineLedgers(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")

	ledgers, err := f.Ledgers.FindByUser(userID, "", 0)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve fine ledgers"})
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := "Sheet1"
	headers := []string{"Date", "Total Fine", "Tasks Failed", "Payment Status", "Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(sheet, cell, header)
	}

	var totalFine float64
	for i, ledger := range ledgers {
		row := i + 2
		file.SetCellValue(sheet, fmt.Sprintf("A%d", row), ledger.Date)
		file.SetCellValue(sheet, fmt.Sprintf("B%d", row), ledger.TotalFine)
		file.SetCellValue(sheet, fmt.Sprintf("C%d", row), joinKeys(ledger.TasksFailed))
		file.SetCellValue(sheet, fmt.Sprintf("D%d", row), ledger.PaymentStatus)
		file.SetCellValue(sheet, fmt.Sprintf("E%d", row), ledger.Notes)
		totalFine += ledger.TotalFine
	}
	summaryRow := len(ledgers) + 2
	file.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Total")
	file.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow), totalFine)

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate report"})
	}

	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=fines_%s.xlsx", userID))
	return ctx.Send(buffer.Bytes())
}

func joinKeys(keys []string) string {
	out := ""
	for i, key := range keys {
		if i > 0 {
			out += ", "
		}
		out += key
	}
	return out
}
