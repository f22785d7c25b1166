package timetable

import "time"

// WeekNumber returns the teaching week containing today, counting the week
// that starts on semesterStart as week 1. Only calendar dates matter; days
// before the semester starts count as week 1.
func WeekNumber(semesterStart, today time.Time) int {
	start := time.Date(semesterStart.Year(), semesterStart.Month(), semesterStart.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	days := int(day.Sub(start).Hours() / 24)
	if days < 0 {
		return 1
	}
	return days/7 + 1
}
