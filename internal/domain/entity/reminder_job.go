package entity

import (
	"fmt"
	"time"
)

// ReminderJob is a one-shot reminder waiting in the registry.
type ReminderJob struct {
	ID     string
	UserID string
	Target string
	FireAt time.Time
	Text   string
}

// ReminderJobID is unique per subscriber and reminder time of day.
func ReminderJobID(userID, reminderTime string) string {
	return fmt.Sprintf("reminder_%s_%s", userID, reminderTime)
}

// BroadcastReport summarises one daily broadcast run.
type BroadcastReport struct {
	RunID         string
	Succeeded     int
	Empty         int
	Failed        int
	JobsScheduled int
}
