package Models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

// FineLedger is the durable per-user-per-date financial record, kept
// separate from DailyEntry so payment status and notes can be corrected
// without touching the raw task data.
type FineLedger struct {
	gorm.Model
	User            string         `json:"user" gorm:"not null;uniqueIndex:idx_ledger_user_date"`
	Date            string         `json:"date" gorm:"not null;uniqueIndex:idx_ledger_user_date"` // YYYY-MM-DD
	TotalFine       float64        `json:"total_fine" gorm:"default:0"`
	TasksFailed     []string       `json:"tasks_failed" gorm:"-"`
	JSONTasksFailed datatypes.JSON `json:"-" gorm:"column:tasks_failed"`
	PaymentStatus   string         `json:"payment_status" gorm:"default:unpaid"`
	Notes           string         `json:"notes"`
}

// EncodeTasksFailed copies TasksFailed into the persisted JSON column.
func (l *FineLedger) EncodeTasksFailed() error {
	if l.TasksFailed == nil {
		l.TasksFailed = []string{}
	}
	data, err := json.Marshal(l.TasksFailed)
	if err != nil {
		return err
	}
	l.JSONTasksFailed = data
	return nil
}

// DecodeTasksFailed populates TasksFailed from the persisted JSON column.
func (l *FineLedger) DecodeTasksFailed() error {
	l.TasksFailed = []string{}
	if len(l.JSONTasksFailed) == 0 {
		return nil
	}
	return json.Unmarshal(l.JSONTasksFailed, &l.TasksFailed)
}

func (l *FineLedger) AfterFind(tx *gorm.DB) error {
	return l.DecodeTasksFailed()
}
