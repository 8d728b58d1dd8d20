package RuleEngine

import (
	"fmt"
	"log"
	"time"

	"Tracker/Models"
)

// MorningJobsTaskKey identifies the one task type charged by its own
// midday pass instead of the end-of-day batch.
const MorningJobsTaskKey = "morning_jobs_applied"

// TaskTypeCatalog is the rule-definition lookup.
type TaskTypeCatalog interface {
	FindActive() ([]Models.TaskType, error)
	FindByKey(key string) (*Models.TaskType, error)
	FindByID(id uint) (*Models.TaskType, error)
}

// DailyEntryStore is the persistence surface for per-user-per-day records.
// AtomicMarkCalculated and AtomicMarkTaskFineApplied must be conditional
// single-statement updates (compare-and-set on the null timestamp), so
// concurrent batch runs cannot double-charge an entry.
type DailyEntryStore interface {
	FindOrCreate(user, date string, activeTaskTypes []Models.TaskType) (*Models.DailyEntry, error)
	FindUncalculated(date string) ([]Models.DailyEntry, error)
	FindByDate(date string) ([]Models.DailyEntry, error)
	AtomicMarkCalculated(entryID uint, dailyFine float64) (bool, error)
	AtomicMarkTaskFineApplied(taskEntryID uint) (bool, error)
	SaveTaskResult(taskEntryID uint, value float64, completed bool, markedAt time.Time) error
	AddDailyFine(entryID uint, amount float64) error
}

// FineLedgerStore is the durable fine sink. Writes must be atomic per
// (user, date) key.
type FineLedgerStore interface {
	Upsert(user, date string, totalFine float64, failedKeys []string, paymentStatus string) error
	AddFine(user, date string, amount float64, failedKey string) error
}

// EntryResult reports one finalized entry.
type EntryResult struct {
	User        string   `json:"user"`
	Date        string   `json:"date"`
	Fine        float64  `json:"fine"`
	TasksFailed []string `json:"tasks_failed"`
	Completed   *bool    `json:"completed,omitempty"`
}

// EntryError reports one entry that could not be processed.
type EntryError struct {
	User  string `json:"user"`
	Date  string `json:"date"`
	Error string `json:"error"`
}

// Report summarizes one batch run.
type Report struct {
	Processed int           `json:"processed"`
	Results   []EntryResult `json:"results"`
	Errors    []EntryError  `json:"errors"`
}

// Recalculator is the batch orchestrator: it re-evaluates completion for
// a target date and upserts fine ledger rows. Safe against repeated and
// concurrent invocation; the CAS guards in the store are the concurrency
// control.
type Recalculator struct {
	TaskTypes TaskTypeCatalog
	Entries   DailyEntryStore
	Ledgers   FineLedgerStore
	Oracle    *SpecialDayOracle

	// ExcludedTaskKeys are skipped by the main pass; with the default
	// configuration that is the morning-jobs task, which RunMorningJobs
	// charges on its own schedule.
	ExcludedTaskKeys []string
	DualPassEnabled  bool
	MorningTaskKey   string

	// LedgerRetryBackoff is the wait before the single retry of a failed
	// ledger write.
	LedgerRetryBackoff time.Duration
}

// NewRecalculator wires the default configuration: dual-pass enabled with
// the morning-jobs task excluded from the main pass.
func NewRecalculator(taskTypes TaskTypeCatalog, entries DailyEntryStore, ledgers FineLedgerStore, specialDays SpecialDayCatalog) *Recalculator {
	return &Recalculator{
		TaskTypes:          taskTypes,
		Entries:            entries,
		Ledgers:            ledgers,
		Oracle:             &SpecialDayOracle{Catalog: specialDays},
		ExcludedTaskKeys:   []string{MorningJobsTaskKey},
		DualPassEnabled:    true,
		MorningTaskKey:     MorningJobsTaskKey,
		LedgerRetryBackoff: 200 * time.Millisecond,
	}
}

// Run recalculates fines for every uncalculated entry on the target date.
// A failure on one entry is logged and recorded, never fatal to the batch.
func (r *Recalculator) Run(date string) (*Report, error) {
	specialDay := r.Oracle.IsSpecial(date)

	entries, err := r.Entries.FindUncalculated(date)
	if err != nil {
		return nil, fmt.Errorf("loading uncalculated entries for %s: %w", date, err)
	}

	report := &Report{Results: []EntryResult{}, Errors: []EntryError{}}
	for i := range entries {
		entry := &entries[i]
		result, err := r.recalculateEntry(entry, specialDay)
		if err != nil {
			log.Printf("Error recalculating fines for user %s on %s: %v", entry.User, entry.Date, err)
			report.Errors = append(report.Errors, EntryError{User: entry.User, Date: entry.Date, Error: err.Error()})
			continue
		}
		if result == nil {
			// Lost the CAS to a concurrent run; nothing left to do.
			continue
		}
		report.Results = append(report.Results, *result)
		report.Processed++
	}
	return report, nil
}

func (r *Recalculator) recalculateEntry(entry *Models.DailyEntry, specialDay bool) (*EntryResult, error) {
	type verdict struct {
		taskEntryID uint
		value       float64
		completed   bool
	}

	evaluated := make([]EvaluatedTask, 0, len(entry.Tasks))
	verdicts := make([]verdict, 0, len(entry.Tasks))
	// Fines the dedicated morning pass already charged today. They must
	// survive finalization: the totals written below are overwrites, not
	// increments, and the consumed fine_applied_at guard means a lost
	// charge can never be re-applied.
	var appliedFine float64
	var appliedKeys []string
	for _, task := range entry.Tasks {
		taskType, err := r.taskTypeFor(&task)
		if err != nil {
			return nil, err
		}
		if r.DualPassEnabled && r.isExcluded(taskType.Key) {
			if task.FineAppliedAt != nil && !task.Completed {
				appliedFine += taskType.FineIfFailed
				appliedKeys = append(appliedKeys, taskKey(taskType))
			}
			continue
		}
		completed, err := EvaluateTask(task.Value, *taskType, specialDay)
		if err != nil {
			return nil, fmt.Errorf("evaluating task %s: %w", taskKey(taskType), err)
		}
		evaluated = append(evaluated, EvaluatedTask{Key: taskKey(taskType), Completed: completed})
		// markedAt records a change; an unchanged verdict keeps its stamp.
		if completed != task.Completed {
			verdicts = append(verdicts, verdict{taskEntryID: task.ID, value: task.Value, completed: completed})
		}
	}

	fine := CalculateFine(evaluated)
	total := fine.Fine + appliedFine
	if total > MaxDailyFine {
		total = MaxDailyFine
	}
	failedKeys := append(fine.FailedTaskKeys, appliedKeys...)

	claimed, err := r.Entries.AtomicMarkCalculated(entry.ID, total)
	if err != nil {
		return nil, fmt.Errorf("marking entry calculated: %w", err)
	}
	if !claimed {
		return nil, nil
	}

	now := time.Now()
	for _, v := range verdicts {
		if err := r.Entries.SaveTaskResult(v.taskEntryID, v.value, v.completed, now); err != nil {
			log.Printf("Error saving task verdict for entry %d: %v", entry.ID, err)
		}
	}

	status := Models.PaymentStatusPaid
	if total > 0 {
		status = Models.PaymentStatusUnpaid
	}
	if err := r.withRetry(func() error {
		return r.Ledgers.Upsert(entry.User, entry.Date, total, failedKeys, status)
	}); err != nil {
		return nil, fmt.Errorf("upserting fine ledger: %w", err)
	}

	return &EntryResult{
		User:        entry.User,
		Date:        entry.Date,
		Fine:        total,
		TasksFailed: failedKeys,
	}, nil
}

// RunMorningJobs is the dedicated same-day pass for the morning-jobs task
// type. Its fine is added on top of the day's existing total rather than
// replacing it; the per-task fine_applied_at CAS guards against charging
// twice.
func (r *Recalculator) RunMorningJobs(date string) (*Report, error) {
	key := r.MorningTaskKey
	if key == "" {
		key = MorningJobsTaskKey
	}
	taskType, err := r.TaskTypes.FindByKey(key)
	if err != nil {
		return nil, fmt.Errorf("looking up task type %s: %w", key, err)
	}
	if taskType == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrTaskTypeNotFound)
	}

	specialDay := r.Oracle.IsSpecial(date)

	entries, err := r.Entries.FindByDate(date)
	if err != nil {
		return nil, fmt.Errorf("loading entries for %s: %w", date, err)
	}

	report := &Report{Results: []EntryResult{}, Errors: []EntryError{}}
	for i := range entries {
		entry := &entries[i]
		result, err := r.chargeMorningJobs(entry, taskType, specialDay)
		if err != nil {
			log.Printf("Error charging morning jobs for user %s on %s: %v", entry.User, entry.Date, err)
			report.Errors = append(report.Errors, EntryError{User: entry.User, Date: entry.Date, Error: err.Error()})
			continue
		}
		if result == nil {
			continue
		}
		report.Results = append(report.Results, *result)
		report.Processed++
	}
	return report, nil
}

func (r *Recalculator) chargeMorningJobs(entry *Models.DailyEntry, taskType *Models.TaskType, specialDay bool) (*EntryResult, error) {
	var task *Models.TaskEntry
	for i := range entry.Tasks {
		if entry.Tasks[i].TaskTypeID == taskType.ID {
			task = &entry.Tasks[i]
			break
		}
	}
	if task == nil {
		log.Printf("User %s has no %s task on %s", entry.User, taskKey(taskType), entry.Date)
		return nil, nil
	}

	// Evaluate before claiming the guard, so a rule defect does not
	// consume the one charge attempt.
	completed, err := EvaluateTask(task.Value, *taskType, specialDay)
	if err != nil {
		return nil, fmt.Errorf("evaluating task %s: %w", taskKey(taskType), err)
	}

	claimed, err := r.Entries.AtomicMarkTaskFineApplied(task.ID)
	if err != nil {
		return nil, fmt.Errorf("marking task fine applied: %w", err)
	}
	if !claimed {
		// Already charged by an earlier run today.
		return nil, nil
	}

	if err := r.Entries.SaveTaskResult(task.ID, task.Value, completed, time.Now()); err != nil {
		log.Printf("Error saving task verdict for entry %d: %v", entry.ID, err)
	}

	var fine float64
	if !completed {
		fine = taskType.FineIfFailed
	}
	var failed []string
	if fine > 0 {
		failed = []string{taskKey(taskType)}
		if err := r.Entries.AddDailyFine(entry.ID, fine); err != nil {
			return nil, fmt.Errorf("adding daily fine: %w", err)
		}
		if err := r.withRetry(func() error {
			return r.Ledgers.AddFine(entry.User, entry.Date, fine, taskKey(taskType))
		}); err != nil {
			return nil, fmt.Errorf("adding ledger fine: %w", err)
		}
	}

	return &EntryResult{
		User:        entry.User,
		Date:        entry.Date,
		Fine:        fine,
		TasksFailed: failed,
		Completed:   &completed,
	}, nil
}

// withRetry retries a contended ledger write once after a short backoff.
func (r *Recalculator) withRetry(write func() error) error {
	err := write()
	if err == nil {
		return nil
	}
	log.Printf("Ledger write failed, retrying once: %v", err)
	time.Sleep(r.LedgerRetryBackoff)
	return write()
}

func (r *Recalculator) taskTypeFor(task *Models.TaskEntry) (*Models.TaskType, error) {
	if task.TaskType.ID != 0 {
		return &task.TaskType, nil
	}
	taskType, err := r.TaskTypes.FindByID(task.TaskTypeID)
	if err != nil {
		return nil, fmt.Errorf("looking up task type %d: %w", task.TaskTypeID, err)
	}
	if taskType == nil {
		return nil, fmt.Errorf("task type %d: %w", task.TaskTypeID, ErrTaskTypeNotFound)
	}
	return taskType, nil
}

func (r *Recalculator) isExcluded(key string) bool {
	for _, excluded := range r.ExcludedTaskKeys {
		if excluded == key {
			return true
		}
	}
	return false
}
