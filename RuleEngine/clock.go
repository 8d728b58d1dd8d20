package RuleEngine

import "time"

// DateLayout is the calendar-date key used everywhere: no time component,
// no timezone conversion. Callers normalize to the business timezone
// before building a date string.
const DateLayout = "2006-01-02"

// IST is the business timezone; the day boundary is local midnight.
var IST = time.FixedZone("IST", 5*3600+30*60)

func TodayIST() string {
	return time.Now().In(IST).Format(DateLayout)
}

func YesterdayIST() string {
	return time.Now().In(IST).AddDate(0, 0, -1).Format(DateLayout)
}
