package RuleEngine

import (
	"errors"
	"testing"
	"time"

	"Tracker/Models"

	"gorm.io/gorm"
)

type fakeTaskTypes struct {
	types []Models.TaskType
}

func (f *fakeTaskTypes) FindActive() ([]Models.TaskType, error) {
	var active []Models.TaskType
	for _, taskType := range f.types {
		if taskType.Active {
			active = append(active, taskType)
		}
	}
	return active, nil
}

func (f *fakeTaskTypes) FindByKey(key string) (*Models.TaskType, error) {
	for i := range f.types {
		if f.types[i].Key == key && f.types[i].Active {
			taskType := f.types[i]
			return &taskType, nil
		}
	}
	return nil, nil
}

func (f *fakeTaskTypes) FindByID(id uint) (*Models.TaskType, error) {
	for i := range f.types {
		if f.types[i].ID == id {
			taskType := f.types[i]
			return &taskType, nil
		}
	}
	return nil, nil
}

type fakeEntries struct {
	entries []*Models.DailyEntry
}

func (f *fakeEntries) FindOrCreate(user, date string, activeTaskTypes []Models.TaskType) (*Models.DailyEntry, error) {
	for _, entry := range f.entries {
		if entry.User == user && entry.Date == date {
			return entry, nil
		}
	}
	entry := &Models.DailyEntry{User: user, Date: date}
	for _, taskType := range activeTaskTypes {
		entry.Tasks = append(entry.Tasks, Models.TaskEntry{TaskTypeID: taskType.ID})
	}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeEntries) FindUncalculated(date string) ([]Models.DailyEntry, error) {
	var out []Models.DailyEntry
	for _, entry := range f.entries {
		if entry.Date == date && entry.FineCalculatedAt == nil {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeEntries) FindByDate(date string) ([]Models.DailyEntry, error) {
	var out []Models.DailyEntry
	for _, entry := range f.entries {
		if entry.Date == date {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeEntries) byID(entryID uint) *Models.DailyEntry {
	for _, entry := range f.entries {
		if entry.ID == entryID {
			return entry
		}
	}
	return nil
}

func (f *fakeEntries) taskByID(taskEntryID uint) *Models.TaskEntry {
	for _, entry := range f.entries {
		for i := range entry.Tasks {
			if entry.Tasks[i].ID == taskEntryID {
				return &entry.Tasks[i]
			}
		}
	}
	return nil
}

func (f *fakeEntries) AtomicMarkCalculated(entryID uint, dailyFine float64) (bool, error) {
	entry := f.byID(entryID)
	if entry == nil {
		return false, errors.New("entry not found")
	}
	if entry.FineCalculatedAt != nil {
		return false, nil
	}
	now := time.Now()
	entry.DailyFine = dailyFine
	entry.FineCalculatedAt = &now
	return true, nil
}

func (f *fakeEntries) AtomicMarkTaskFineApplied(taskEntryID uint) (bool, error) {
	task := f.taskByID(taskEntryID)
	if task == nil {
		return false, errors.New("task not found")
	}
	if task.FineAppliedAt != nil {
		return false, nil
	}
	now := time.Now()
	task.FineAppliedAt = &now
	return true, nil
}

func (f *fakeEntries) SaveTaskResult(taskEntryID uint, value float64, completed bool, markedAt time.Time) error {
	task := f.taskByID(taskEntryID)
	if task == nil {
		return errors.New("task not found")
	}
	task.Value = value
	task.Completed = completed
	task.MarkedAt = &markedAt
	return nil
}

func (f *fakeEntries) AddDailyFine(entryID uint, amount float64) error {
	entry := f.byID(entryID)
	if entry == nil {
		return errors.New("entry not found")
	}
	entry.DailyFine += amount
	if entry.DailyFine > MaxDailyFine {
		entry.DailyFine = MaxDailyFine
	}
	return nil
}

type fakeLedgers struct {
	rows          map[string]*Models.FineLedger
	failRemaining int
}

func newFakeLedgers() *fakeLedgers {
	return &fakeLedgers{rows: map[string]*Models.FineLedger{}}
}

func (f *fakeLedgers) maybeFail() error {
	if f.failRemaining > 0 {
		f.failRemaining--
		return errors.New("write conflict")
	}
	return nil
}

func (f *fakeLedgers) Upsert(user, date string, totalFine float64, failedKeys []string, paymentStatus string) error {
	if err := f.maybeFail(); err != nil {
		return err
	}
	f.rows[user+"|"+date] = &Models.FineLedger{
		User:          user,
		Date:          date,
		TotalFine:     totalFine,
		TasksFailed:   append([]string{}, failedKeys...),
		PaymentStatus: paymentStatus,
	}
	return nil
}

func (f *fakeLedgers) AddFine(user, date string, amount float64, failedKey string) error {
	if err := f.maybeFail(); err != nil {
		return err
	}
	ledger, ok := f.rows[user+"|"+date]
	if !ok {
		ledger = &Models.FineLedger{User: user, Date: date, PaymentStatus: Models.PaymentStatusPaid}
		f.rows[user+"|"+date] = ledger
	}
	ledger.TotalFine += amount
	if ledger.TotalFine > MaxDailyFine {
		ledger.TotalFine = MaxDailyFine
	}
	if amount > 0 {
		ledger.TasksFailed = append(ledger.TasksFailed, failedKey)
	}
	if ledger.TotalFine > 0 {
		ledger.PaymentStatus = Models.PaymentStatusUnpaid
	}
	return nil
}

func testTaskTypes() *fakeTaskTypes {
	return &fakeTaskTypes{types: []Models.TaskType{
		{
			Model:          gorm.Model{ID: 1},
			Name:           "Study Hours",
			Key:            "study_hours",
			InputType:      Models.InputDecimal,
			CompletionRule: "value >= 2",
			FineIfFailed:   100,
			Active:         true,
		},
		{
			Model:          gorm.Model{ID: 2},
			Name:           "Jobs Applied",
			Key:            "jobs_applied",
			InputType:      Models.InputInteger,
			CompletionRule: "value >= 5",
			FineIfFailed:   100,
			Active:         true,
		},
		{
			Model:          gorm.Model{ID: 3},
			Name:           "Morning Jobs Applied",
			Key:            MorningJobsTaskKey,
			InputType:      Models.InputInteger,
			CompletionRule: "value >= 3",
			FineIfFailed:   100,
			Active:         true,
		},
	}}
}

func newTestRecalculator(taskTypes *fakeTaskTypes, entries *fakeEntries, ledgers *fakeLedgers) *Recalculator {
	r := NewRecalculator(taskTypes, entries, ledgers, &fakeSpecialDayCatalog{days: map[string]*Models.SpecialDay{}})
	r.LedgerRetryBackoff = 0
	return r
}

// Monday, an ordinary day.
const mondayDate = "2026-01-05"

func mondayEntry(id uint, user string) *Models.DailyEntry {
	return &Models.DailyEntry{
		Model: gorm.Model{ID: id},
		User:  user,
		Date:  mondayDate,
		Tasks: []Models.TaskEntry{
			{Model: gorm.Model{ID: id*10 + 1}, DailyEntryID: id, TaskTypeID: 1, Value: 1},  // study_hours: fail
			{Model: gorm.Model{ID: id*10 + 2}, DailyEntryID: id, TaskTypeID: 2, Value: 10}, // jobs_applied: pass
		},
	}
}

func TestRun_EndToEndScenario(t *testing.T) {
	entries := &fakeEntries{entries: []*Models.DailyEntry{mondayEntry(1, "alice")}}
	ledgers := newFakeLedgers()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	report, err := r.Run(mondayDate)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Processed != 1 || len(report.Errors) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	result := report.Results[0]
	if result.Fine != 100 {
		t.Fatalf("fine = %v, want 100", result.Fine)
	}
	if len(result.TasksFailed) != 1 || result.TasksFailed[0] != "study_hours" {
		t.Fatalf("tasks failed = %v, want [study_hours]", result.TasksFailed)
	}

	entry := entries.byID(1)
	if entry.DailyFine != 100 || entry.FineCalculatedAt == nil {
		t.Fatalf("entry not finalized: fine=%v calculatedAt=%v", entry.DailyFine, entry.FineCalculatedAt)
	}
	if entry.Tasks[0].Completed || !entry.Tasks[1].Completed {
		t.Fatalf("task verdicts not saved: %+v", entry.Tasks)
	}
	if entry.Tasks[1].MarkedAt == nil {
		t.Fatalf("the changed verdict should be stamped")
	}

	ledger := ledgers.rows["alice|"+mondayDate]
	if ledger == nil {
		t.Fatalf("ledger row missing")
	}
	if ledger.TotalFine != 100 || ledger.PaymentStatus != Models.PaymentStatusUnpaid {
		t.Fatalf("ledger = %+v", ledger)
	}
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	entries := &fakeEntries{entries: []*Models.DailyEntry{mondayEntry(1, "alice")}}
	ledgers := newFakeLedgers()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	if _, err := r.Run(mondayDate); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := *ledgers.rows["alice|"+mondayDate]

	report, err := r.Run(mondayDate)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Processed != 0 {
		t.Fatalf("second run processed %d entries, want 0", report.Processed)
	}

	second := *ledgers.rows["alice|"+mondayDate]
	if first.TotalFine != second.TotalFine || first.PaymentStatus != second.PaymentStatus {
		t.Fatalf("ledger changed on the second run: %+v vs %+v", first, second)
	}
	if entries.byID(1).DailyFine != 100 {
		t.Fatalf("daily fine double-charged: %v", entries.byID(1).DailyFine)
	}
}

func TestRun_SpecialDayRuleApplies(t *testing.T) {
	taskTypes := &fakeTaskTypes{types: []Models.TaskType{{
		Model:                    gorm.Model{ID: 1},
		Key:                      "study_hours",
		InputType:                Models.InputDecimal,
		CompletionRule:           "value >= 1",
		SpecialDayCompletionRule: "value >= 0",
		FineIfFailed:             100,
		Active:                   true,
	}}}

	saturday := "2026-01-03"
	entries := &fakeEntries{entries: []*Models.DailyEntry{{
		Model: gorm.Model{ID: 1},
		User:  "alice",
		Date:  saturday,
		Tasks: []Models.TaskEntry{{Model: gorm.Model{ID: 11}, TaskTypeID: 1, Value: 0}},
	}}}
	ledgers := newFakeLedgers()
	r := newTestRecalculator(taskTypes, entries, ledgers)

	report, err := r.Run(saturday)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Processed != 1 || report.Results[0].Fine != 0 {
		t.Fatalf("Saturday with value 0 should pass the special rule: %+v", report)
	}
	if ledgers.rows["alice|"+saturday].PaymentStatus != Models.PaymentStatusPaid {
		t.Fatalf("a zero-fine day should be recorded as paid")
	}
}

func TestRun_ExcludesMorningJobsFromMainPass(t *testing.T) {
	entry := mondayEntry(1, "alice")
	entry.Tasks = append(entry.Tasks, Models.TaskEntry{
		Model: gorm.Model{ID: 13}, DailyEntryID: 1, TaskTypeID: 3, Value: 0, // morning jobs: would fail
	})
	entries := &fakeEntries{entries: []*Models.DailyEntry{entry}}
	ledgers := newFakeLedgers()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	report, err := r.Run(mondayDate)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	// Only study_hours counts; the excluded morning task is left for its
	// own pass.
	if report.Results[0].Fine != 100 {
		t.Fatalf("fine = %v, want 100", report.Results[0].Fine)
	}
	if len(report.Results[0].TasksFailed) != 1 || report.Results[0].TasksFailed[0] != "study_hours" {
		t.Fatalf("tasks failed = %v", report.Results[0].TasksFailed)
	}
}

func TestRun_KeepsMorningFineChargedEarlierThatDay(t *testing.T) {
	// The deployed ordering: the morning pass charges at noon, the main
	// pass finalizes at 23:55 the same day.
	entry := mondayEntry(1, "alice")
	entry.Tasks = append(entry.Tasks, Models.TaskEntry{
		Model: gorm.Model{ID: 13}, DailyEntryID: 1, TaskTypeID: 3, Value: 0,
	})
	entries := &fakeEntries{entries: []*Models.DailyEntry{entry}}
	ledgers := newFakeLedgers()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	if _, err := r.RunMorningJobs(mondayDate); err != nil {
		t.Fatalf("morning pass: %v", err)
	}
	if got := entries.byID(1).DailyFine; got != 100 {
		t.Fatalf("daily fine after morning pass = %v, want 100", got)
	}

	report, err := r.Run(mondayDate)
	if err != nil {
		t.Fatalf("main pass: %v", err)
	}
	if report.Processed != 1 || report.Results[0].Fine != 200 {
		t.Fatalf("the morning charge must survive finalization: %+v", report)
	}

	if got := entries.byID(1).DailyFine; got != 200 {
		t.Fatalf("daily fine = %v, want 200", got)
	}
	ledger := ledgers.rows["alice|"+mondayDate]
	if ledger.TotalFine != 200 || ledger.PaymentStatus != Models.PaymentStatusUnpaid {
		t.Fatalf("ledger = %+v", ledger)
	}
	wantKeys := map[string]bool{"study_hours": false, MorningJobsTaskKey: false}
	for _, key := range ledger.TasksFailed {
		wantKeys[key] = true
	}
	for key, seen := range wantKeys {
		if !seen {
			t.Fatalf("ledger failed keys %v are missing %s", ledger.TasksFailed, key)
		}
	}

	// Still idempotent afterwards.
	report, err = r.Run(mondayDate)
	if err != nil {
		t.Fatalf("repeat main pass: %v", err)
	}
	if report.Processed != 0 || entries.byID(1).DailyFine != 200 {
		t.Fatalf("repeat main pass changed state: %+v, fine %v", report, entries.byID(1).DailyFine)
	}
}

func TestRun_StampsOnlyChangedVerdicts(t *testing.T) {
	entries := &fakeEntries{entries: []*Models.DailyEntry{mondayEntry(1, "alice")}}
	ledgers := newFakeLedgers()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	if _, err := r.Run(mondayDate); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	entry := entries.byID(1)
	// study_hours stays failed: no change, no stamp.
	if entry.Tasks[0].MarkedAt != nil {
		t.Fatalf("an unchanged verdict should keep its stamp, got %v", entry.Tasks[0].MarkedAt)
	}
	// jobs_applied flips to completed: stamped.
	if entry.Tasks[1].MarkedAt == nil {
		t.Fatalf("a changed verdict should be stamped")
	}
}

func TestRun_FailsOpenWhenSpecialDayLookupErrors(t *testing.T) {
	entries := &fakeEntries{entries: []*Models.DailyEntry{mondayEntry(1, "alice")}}
	ledgers := newFakeLedgers()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)
	r.Oracle = &SpecialDayOracle{Catalog: &fakeSpecialDayCatalog{err: errors.New("connection refused")}}

	report, err := r.Run(mondayDate)
	if err != nil {
		t.Fatalf("Run should survive a special day outage: %v", err)
	}
	if report.Processed != 1 {
		t.Fatalf("processed = %d, want 1", report.Processed)
	}
}

func TestRun_IsolatesPerEntryFailures(t *testing.T) {
	broken := &Models.DailyEntry{
		Model: gorm.Model{ID: 2},
		User:  "bob",
		Date:  mondayDate,
		Tasks: []Models.TaskEntry{{Model: gorm.Model{ID: 21}, TaskTypeID: 99, Value: 0}},
	}
	entries := &fakeEntries{entries: []*Models.DailyEntry{broken, mondayEntry(1, "alice")}}
	ledgers := newFakeLedgers()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	report, err := r.Run(mondayDate)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Processed != 1 {
		t.Fatalf("the good entry should still be processed: %+v", report)
	}
	if len(report.Errors) != 1 || report.Errors[0].User != "bob" {
		t.Fatalf("the broken entry should be reported: %+v", report.Errors)
	}
	if ledgers.rows["alice|"+mondayDate] == nil {
		t.Fatalf("the good entry's ledger row is missing")
	}
}

func TestRun_RetriesLedgerWriteOnce(t *testing.T) {
	entries := &fakeEntries{entries: []*Models.DailyEntry{mondayEntry(1, "alice")}}
	ledgers := newFakeLedgers()
	ledgers.failRemaining = 1
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	report, err := r.Run(mondayDate)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Processed != 1 || len(report.Errors) != 0 {
		t.Fatalf("one transient conflict should be retried away: %+v", report)
	}
	if ledgers.rows["alice|"+mondayDate] == nil {
		t.Fatalf("ledger row missing after retry")
	}
}

func calculatedMondayEntry() (*fakeEntries, *fakeLedgers) {
	now := time.Now()
	entry := mondayEntry(1, "alice")
	entry.Tasks = append(entry.Tasks, Models.TaskEntry{
		Model: gorm.Model{ID: 13}, DailyEntryID: 1, TaskTypeID: 3, Value: 0,
	})
	entry.DailyFine = 100
	entry.FineCalculatedAt = &now

	ledgers := newFakeLedgers()
	ledgers.rows["alice|"+mondayDate] = &Models.FineLedger{
		User:          "alice",
		Date:          mondayDate,
		TotalFine:     100,
		TasksFailed:   []string{"study_hours"},
		PaymentStatus: Models.PaymentStatusUnpaid,
	}
	return &fakeEntries{entries: []*Models.DailyEntry{entry}}, ledgers
}

func TestRunMorningJobs_AddsFineOnTopOfDailyTotal(t *testing.T) {
	entries, ledgers := calculatedMondayEntry()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	report, err := r.RunMorningJobs(mondayDate)
	if err != nil {
		t.Fatalf("RunMorningJobs returned error: %v", err)
	}
	if report.Processed != 1 {
		t.Fatalf("processed = %d, want 1", report.Processed)
	}
	if report.Results[0].Fine != 100 {
		t.Fatalf("morning fine = %v, want 100", report.Results[0].Fine)
	}

	// Added to the existing totals, not recomputed from scratch.
	if got := entries.byID(1).DailyFine; got != 200 {
		t.Fatalf("daily fine = %v, want 200", got)
	}
	ledger := ledgers.rows["alice|"+mondayDate]
	if ledger.TotalFine != 200 {
		t.Fatalf("ledger total = %v, want 200", ledger.TotalFine)
	}
	if len(ledger.TasksFailed) != 2 || ledger.TasksFailed[1] != MorningJobsTaskKey {
		t.Fatalf("ledger failed keys = %v", ledger.TasksFailed)
	}
}

func TestRunMorningJobs_SecondRunDoesNotDoubleCharge(t *testing.T) {
	entries, ledgers := calculatedMondayEntry()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	if _, err := r.RunMorningJobs(mondayDate); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := r.RunMorningJobs(mondayDate)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Processed != 0 {
		t.Fatalf("second run processed %d, want 0", report.Processed)
	}
	if got := entries.byID(1).DailyFine; got != 200 {
		t.Fatalf("daily fine = %v, want 200", got)
	}
	if got := ledgers.rows["alice|"+mondayDate].TotalFine; got != 200 {
		t.Fatalf("ledger total = %v, want 200", got)
	}
}

func TestRunMorningJobs_CompletedTaskChargesNothing(t *testing.T) {
	entries, ledgers := calculatedMondayEntry()
	entries.entries[0].Tasks[2].Value = 5
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	report, err := r.RunMorningJobs(mondayDate)
	if err != nil {
		t.Fatalf("RunMorningJobs returned error: %v", err)
	}
	if report.Processed != 1 || report.Results[0].Fine != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Results[0].Completed == nil || !*report.Results[0].Completed {
		t.Fatalf("completion verdict missing from result")
	}
	if got := ledgers.rows["alice|"+mondayDate].TotalFine; got != 100 {
		t.Fatalf("ledger total = %v, want unchanged 100", got)
	}
}

func TestRunMorningJobs_MissingTaskType(t *testing.T) {
	entries, ledgers := calculatedMondayEntry()
	taskTypes := &fakeTaskTypes{} // empty catalog
	r := newTestRecalculator(taskTypes, entries, ledgers)

	if _, err := r.RunMorningJobs(mondayDate); !errors.Is(err, ErrTaskTypeNotFound) {
		t.Fatalf("expected ErrTaskTypeNotFound, got %v", err)
	}
}

func TestRunMorningJobs_SkipsEntriesWithoutTheTask(t *testing.T) {
	entries := &fakeEntries{entries: []*Models.DailyEntry{mondayEntry(1, "alice")}}
	ledgers := newFakeLedgers()
	r := newTestRecalculator(testTaskTypes(), entries, ledgers)

	report, err := r.RunMorningJobs(mondayDate)
	if err != nil {
		t.Fatalf("RunMorningJobs returned error: %v", err)
	}
	if report.Processed != 0 || len(report.Errors) != 0 {
		t.Fatalf("entries without the task should be skipped quietly: %+v", report)
	}
}
