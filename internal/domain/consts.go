package domain

import "time"

// ISO 8601 weekday constants and mappings
const (
	Monday    = 1
	Tuesday   = 2
	Wednesday = 3
	Thursday  = 4
	Friday    = 5
	Saturday  = 6
	Sunday    = 7
)

// WeekdayLabels maps ISO 8601 weekday numbers to the numerals used in "周一".."周日"
var WeekdayLabels = map[int]string{
	Monday:    "一",
	Tuesday:   "二",
	Wednesday: "三",
	Thursday:  "四",
	Friday:    "五",
	Saturday:  "六",
	Sunday:    "七",
}

// ISOWeekday converts Go's Sunday=0 numbering to ISO 8601 (Sunday=7)
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return Sunday
	}
	return wd
}

// DailyBroadcastJobID identifies the recurring daily trigger in the reminder registry
const DailyBroadcastJobID = "daily_course_reminder"

// DefaultDailySpec fires the daily broadcast at 07:55
const DefaultDailySpec = "55 7 * * *"
