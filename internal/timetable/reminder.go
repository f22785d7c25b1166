package timetable

import (
	"time"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

// OnWeekday keeps the courses held on the given ISO weekday, in order.
func OnWeekday(courses []entity.CourseRecord, weekday int) []entity.CourseRecord {
	today := make([]entity.CourseRecord, 0, len(courses))
	for _, c := range courses {
		if c.Weekday == weekday {
			today = append(today, c)
		}
	}
	return today
}

// DeriveReminders pairs every course with its reminder time and text.
// Courses sharing a reminder time each get their own reminder. Courses
// whose reminder anchor is not a time of day are left out and counted in
// skipped.
func DeriveReminders(courses []entity.CourseRecord) (reminders []entity.Reminder, skipped int) {
	reminders = make([]entity.Reminder, 0, len(courses))
	for _, c := range courses {
		at, err := entity.ParseClockTime(c.ReminderTime)
		if err != nil {
			skipped++
			continue
		}
		reminders = append(reminders, entity.Reminder{
			FireAt: at,
			Raw:    c.ReminderTime,
			Text:   c.ReminderText,
		})
	}
	return reminders, skipped
}

// Upcoming drops the reminders that would fire strictly before now on now's date.
func Upcoming(reminders []entity.Reminder, now time.Time) []entity.Reminder {
	upcoming := make([]entity.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.FireAt.On(now).Before(now) {
			continue
		}
		upcoming = append(upcoming, r)
	}
	return upcoming
}
