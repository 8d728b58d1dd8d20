package RuleEngine

import (
	"log"
	"time"

	"Tracker/Models"
)

// SpecialDayCatalog is the lookup for explicitly marked special dates.
type SpecialDayCatalog interface {
	FindActiveByDate(date string) (*Models.SpecialDay, error)
}

// SpecialDayOracle answers whether a calendar date is special. Saturdays
// and Sundays are special unconditionally; the catalog only adds
// non-weekend dates.
type SpecialDayOracle struct {
	Catalog SpecialDayCatalog
}

func (o *SpecialDayOracle) IsSpecial(date string) bool {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		log.Printf("Invalid date %q in special day check: %v", date, err)
		return false
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return true
	}
	if o.Catalog == nil {
		return false
	}
	special, err := o.Catalog.FindActiveByDate(date)
	if err != nil {
		// Fail open: a catalog outage must not block fine recalculation.
		// The date is treated as an ordinary day.
		log.Printf("Special day lookup failed for %s, treating as ordinary day: %v", date, err)
		return false
	}
	return special != nil
}
