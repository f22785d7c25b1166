package entity

import "time"

// Feedback is a free-text note a user left through the feedback command.
type Feedback struct {
	ID        int64
	UserID    string
	Content   string
	CreatedAt time.Time
}
