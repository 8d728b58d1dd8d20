package Models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxDailyFine mirrors the aggregation ceiling so the capped SQL
// increments can never push a stored total past it.
const maxDailyFine = 200.0

// TaskTypeStore is the gorm-backed rule-definition catalog.
type TaskTypeStore struct {
	DB *gorm.DB
}

func NewTaskTypeStore(db *gorm.DB) *TaskTypeStore {
	return &TaskTypeStore{DB: db}
}

func (s *TaskTypeStore) FindActive() ([]TaskType, error) {
	var taskTypes []TaskType
	err := s.DB.Where("active = ?", true).Order("created_at asc").Find(&taskTypes).Error
	return taskTypes, err
}

func (s *TaskTypeStore) FindByKey(key string) (*TaskType, error) {
	var taskType TaskType
	err := s.DB.Where("key = ? AND active = ?", key, true).First(&taskType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &taskType, nil
}

// FindByID resolves inactive task types too; historical entries keep
// referencing deactivated types.
func (s *TaskTypeStore) FindByID(id uint) (*TaskType, error) {
	var taskType TaskType
	err := s.DB.First(&taskType, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &taskType, nil
}

// DailyEntryStore is the gorm-backed per-user-per-day record store.
type DailyEntryStore struct {
	DB *gorm.DB
}

func NewDailyEntryStore(db *gorm.DB) *DailyEntryStore {
	return &DailyEntryStore{DB: db}
}

// FindOrCreate returns the entry for (user, date), creating it with one
// zero-valued task row per active task type when absent. Idempotent: a
// concurrent create losing the unique-index race falls back to the
// winner's row.
func (s *DailyEntryStore) FindOrCreate(user, date string, activeTaskTypes []TaskType) (*DailyEntry, error) {
	entry, err := s.findOne(user, date)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := DailyEntry{User: user, Date: date}
	for _, taskType := range activeTaskTypes {
		fresh.Tasks = append(fresh.Tasks, TaskEntry{TaskTypeID: taskType.ID, Value: 0, Completed: false})
	}
	if err := s.DB.Create(&fresh).Error; err != nil {
		// Unique (user, date) violation means another request created it
		// first; serve that row instead.
		if existing, findErr := s.findOne(user, date); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return s.findOne(user, date)
}

func (s *DailyEntryStore) findOne(user, date string) (*DailyEntry, error) {
	var entry DailyEntry
	err := s.DB.Preload("Tasks.TaskType").Where("user = ? AND date = ?", user, date).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *DailyEntryStore) FindByUserAndDate(user, date string) (*DailyEntry, error) {
	return s.findOne(user, date)
}

func (s *DailyEntryStore) FindRecent(user string, limit int) ([]DailyEntry, error) {
	var entries []DailyEntry
	query := s.DB.Preload("Tasks.TaskType").Where("user = ?", user).Order("date desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}

func (s *DailyEntryStore) FindUncalculated(date string) ([]DailyEntry, error) {
	var entries []DailyEntry
	err := s.DB.Preload("Tasks.TaskType").
		Where("date = ? AND fine_calculated_at IS NULL", date).
		Find(&entries).Error
	return entries, err
}

func (s *DailyEntryStore) FindByDate(date string) ([]DailyEntry, error) {
	var entries []DailyEntry
	err := s.DB.Preload("Tasks.TaskType").Where("date = ?", date).Find(&entries).Error
	return entries, err
}

// AtomicMarkCalculated finalizes an entry's fine in a single conditional
// update. Returns false when another run already claimed the entry.
func (s *DailyEntryStore) AtomicMarkCalculated(entryID uint, dailyFine float64) (bool, error) {
	result := s.DB.Model(&DailyEntry{}).
		Where("id = ? AND fine_calculated_at IS NULL", entryID).
		Updates(map[string]interface{}{
			"daily_fine":         dailyFine,
			"fine_calculated_at": time.Now(),
		})
	return result.RowsAffected > 0, result.Error
}

// AtomicMarkTaskFineApplied claims a task for the dedicated morning-jobs
// charge. Returns false when the task was already charged.
func (s *DailyEntryStore) AtomicMarkTaskFineApplied(taskEntryID uint) (bool, error) {
	result := s.DB.Model(&TaskEntry{}).
		Where("id = ? AND fine_applied_at IS NULL", taskEntryID).
		Update("fine_applied_at", time.Now())
	return result.RowsAffected > 0, result.Error
}

func (s *DailyEntryStore) SaveTaskResult(taskEntryID uint, value float64, completed bool, markedAt time.Time) error {
	return s.DB.Model(&TaskEntry{}).Where("id = ?", taskEntryID).
		Updates(map[string]interface{}{
			"value":     value,
			"completed": completed,
			"marked_at": markedAt,
		}).Error
}

// AddDailyFine increments an entry's total in SQL, capped at the daily
// ceiling.
func (s *DailyEntryStore) AddDailyFine(entryID uint, amount float64) error {
	return s.DB.Model(&DailyEntry{}).Where("id = ?", entryID).
		Update("daily_fine", gorm.Expr("MIN(daily_fine + ?, ?)", amount, maxDailyFine)).Error
}

// FineLedgerStore is the gorm-backed durable fine record store.
type FineLedgerStore struct {
	DB *gorm.DB
}

func NewFineLedgerStore(db *gorm.DB) *FineLedgerStore {
	return &FineLedgerStore{DB: db}
}

// Upsert overwrites the ledger row for (user, date) in one statement, so
// concurrent writers cannot interleave partial field updates.
func (s *FineLedgerStore) Upsert(user, date string, totalFine float64, failedKeys []string, paymentStatus string) error {
	ledger := FineLedger{
		User:          user,
		Date:          date,
		TotalFine:     totalFine,
		TasksFailed:   failedKeys,
		PaymentStatus: paymentStatus,
	}
	if err := ledger.EncodeTasksFailed(); err != nil {
		return err
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_fine", "tasks_failed", "payment_status", "updated_at",
		}),
	}).Create(&ledger).Error
}

// AddFine adds an amount to the ledger total (capped) and appends the
// failed key, creating the row when absent. Runs in one transaction per
// (user, date) key.
func (s *FineLedgerStore) AddFine(user, date string, amount float64, failedKey string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var ledger FineLedger
		err := tx.Where("user = ? AND date = ?", user, date).First(&ledger).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ledger = FineLedger{
				User:          user,
				Date:          date,
				TotalFine:     amount,
				PaymentStatus: PaymentStatusPaid,
			}
			if amount > 0 {
				ledger.TasksFailed = []string{failedKey}
				ledger.PaymentStatus = PaymentStatusUnpaid
			}
			if ledger.TotalFine > maxDailyFine {
				ledger.TotalFine = maxDailyFine
			}
			if encodeErr := ledger.EncodeTasksFailed(); encodeErr != nil {
				return encodeErr
			}
			return tx.Create(&ledger).Error
		}
		if err != nil {
			return err
		}

		ledger.TotalFine += amount
		if ledger.TotalFine > maxDailyFine {
			ledger.TotalFine = maxDailyFine
		}
		if amount > 0 {
			ledger.TasksFailed = append(ledger.TasksFailed, failedKey)
		}
		if ledger.TotalFine > 0 {
			ledger.PaymentStatus = PaymentStatusUnpaid
		}
		if encodeErr := ledger.EncodeTasksFailed(); encodeErr != nil {
			return encodeErr
		}
		return tx.Save(&ledger).Error
	})
}

func (s *FineLedgerStore) FindByUser(user, status string, limit int) ([]FineLedger, error) {
	query := s.DB.Where("user = ?", user).Order("date desc")
	if status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var ledgers []FineLedger
	err := query.Find(&ledgers).Error
	return ledgers, err
}

// SpecialDayStore is the gorm-backed special-date catalog.
type SpecialDayStore struct {
	DB *gorm.DB
}

func NewSpecialDayStore(db *gorm.DB) *SpecialDayStore {
	return &SpecialDayStore{DB: db}
}

func (s *SpecialDayStore) FindActiveByDate(date string) (*SpecialDay, error) {
	var day SpecialDay
	err := s.DB.Where("date = ? AND active = ?", date, true).First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}
