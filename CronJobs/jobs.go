package CronJobs

import (
	"fmt"
	"log"

	"Tracker/Models"
	"Tracker/RuleEngine"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// FineScheduler runs the two recalculation passes on their daily
// schedules: the main pass just before the IST day boundary, the
// morning-jobs pass at midday. The passes themselves are idempotent, so
// overlapping or repeated firings are harmless.
type FineScheduler struct {
	cronScheduler  *cron.Cron
	recalculator   *RuleEngine.Recalculator
	runImmediately bool
	dailyJobID     cron.EntryID
	morningJobID   cron.EntryID
}

// NewFineScheduler creates a new fine scheduler with the given configuration
func NewFineScheduler(db *gorm.DB, runImmediately bool) *FineScheduler {
	return &FineScheduler{
		cronScheduler: cron.New(cron.WithSeconds(), cron.WithLocation(RuleEngine.IST)),
		recalculator: RuleEngine.NewRecalculator(
			Models.NewTaskTypeStore(db),
			Models.NewDailyEntryStore(db),
			Models.NewFineLedgerStore(db),
			Models.NewSpecialDayStore(db),
		),
		runImmediately: runImmediately,
	}
}

// Start initiates both recalculation cron jobs
func (s *FineScheduler) Start() error {
	var err error

	// Main pass at 23:55 IST, while the day's entries still belong to "today".
	s.dailyJobID, err = s.cronScheduler.AddFunc("0 55 23 * * *", func() {
		log.Println("Running scheduled daily fine calculation")
		s.runDailyCalculation()
	})
	if err != nil {
		return fmt.Errorf("error scheduling daily fine job: %w", err)
	}

	// Morning-jobs pass at noon IST, same calendar day.
	s.morningJobID, err = s.cronScheduler.AddFunc("0 0 12 * * *", func() {
		log.Println("Running scheduled morning jobs fine calculation")
		s.runMorningJobsCalculation()
	})
	if err != nil {
		return fmt.Errorf("error scheduling morning jobs job: %w", err)
	}

	s.cronScheduler.Start()
	log.Println("Fine scheduler started - daily pass at 23:55 IST, morning jobs at 12:00 IST")

	if s.runImmediately {
		log.Println("Running initial fine calculation")
		s.runDailyCalculation()
	}

	return nil
}

// Stop terminates the scheduler
func (s *FineScheduler) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
		log.Println("Fine scheduler stopped")
	}
}

// UpdateDailySchedule changes the schedule of the main pass
// Format: "0 55 23 * * *" = at 11:55:00 PM every day
func (s *FineScheduler) UpdateDailySchedule(schedule string) error {
	s.cronScheduler.Remove(s.dailyJobID)

	var err error
	s.dailyJobID, err = s.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled daily fine calculation")
		s.runDailyCalculation()
	})
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}

	log.Printf("Daily fine schedule updated to: %s\n", schedule)
	return nil
}

// RunManualCheck executes both passes immediately
func (s *FineScheduler) RunManualCheck() {
	log.Println("Running manual fine calculation")
	s.runDailyCalculation()
	s.runMorningJobsCalculation()
}

func (s *FineScheduler) runDailyCalculation() {
	date := RuleEngine.TodayIST()
	report, err := s.recalculator.Run(date)
	if err != nil {
		log.Printf("Error in daily fine calculation for %s: %v\n", date, err)
		return
	}
	log.Printf("Daily fine calculation for %s done: %d processed, %d errors\n",
		date, report.Processed, len(report.Errors))
}

func (s *FineScheduler) runMorningJobsCalculation() {
	date := RuleEngine.TodayIST()
	report, err := s.recalculator.RunMorningJobs(date)
	if err != nil {
		log.Printf("Error in morning jobs calculation for %s: %v\n", date, err)
		return
	}
	log.Printf("Morning jobs calculation for %s done: %d processed, %d errors\n",
		date, report.Processed, len(report.Errors))
}
