package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CourseType is the pedagogical category encoded by a cell's background colour.
type CourseType string

const (
	CourseTypeRequired           CourseType = "必修"
	CourseTypeRestrictedElective CourseType = "限选"
	CourseTypeFreeElective       CourseType = "任选"
	CourseTypeGeneralElective    CourseType = "公选"
	CourseTypeOther              CourseType = "其它"
	CourseTypeUnclassified       CourseType = ""
)

// CourseRecord is one scheduled class occurrence parsed from a timetable page.
type CourseRecord struct {
	TimeSlot     string     `json:"time_slot"`
	Weekday      int        `json:"weekday"`
	CourseName   string     `json:"course_name"`
	Teacher      string     `json:"teacher"`
	Location     string     `json:"location"`
	CourseType   CourseType `json:"course_type"`
	ReminderTime string     `json:"reminder_time"`
	ReminderText string     `json:"reminder_text"`
}

// ClockTime is a time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "H:MM" or "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid time of day %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", s)
	}

	return ClockTime{Hour: hour, Minute: minute}, nil
}

// On returns the instant of c on the calendar date of day, in day's location.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%d:%02d", c.Hour, c.Minute)
}

// Reminder is a pre-class notice derived from a CourseRecord.
type Reminder struct {
	FireAt ClockTime
	// Raw is the anchor as it appeared in the slot table; it is part of the job id.
	Raw  string
	Text string
}

// TodayTimetable is what a fetch returns for one subscriber.
type TodayTimetable struct {
	Courses   []CourseRecord
	Week      int
	Weekday   int
	Reminders []Reminder
}

// TimetableView is the renderer's input.
type TimetableView struct {
	Week         int
	WeekdayLabel string
	Courses      []CourseRecord
}

// Artifact is a rendered timetable ready to be uploaded.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}
