package contract

//go:generate go run go.uber.org/mock/mockgen -source=service.go -destination=../../../mocks/service_mock.go -package=mocks

import (
	"context"
	"time"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

// SubscriberService is the subscriber store used by commands and the broadcast.
type SubscriberService interface {
	Register(userID string, platform entity.Platform, target, account, secret string) (replaced bool, err error)
	Unregister(userID string) (bool, error)
	Enable(userID string) error
	Disable(userID string) error
	Get(userID string) (*entity.Subscriber, error)
	ListEnabled() ([]*entity.Subscriber, error)
}

// FeedbackService records what users tell the bot's operators.
type FeedbackService interface {
	Submit(userID, content string) error
}

// TimetableService fetches and renders a subscriber's timetable for today.
type TimetableService interface {
	Fetch(ctx context.Context, account, secret string, now time.Time) (*entity.TodayTimetable, error)
	Today(ctx context.Context, userID string) (*entity.TodayTimetable, error)
	Render(ctx context.Context, today *entity.TodayTimetable) (*entity.Artifact, error)
}

// ReminderScheduler is the registry of pending one-shot reminder jobs.
type ReminderScheduler interface {
	Schedule(subscriber *entity.Subscriber, fireAt time.Time, reminderTime, text string) (entity.ReminderJob, error)
	CancelUser(userID string) int
	List() []entity.ReminderJob
	NextDaily() (time.Time, bool)
	Start() error
	Stop()
	Running() bool
}

// BroadcastService runs the daily timetable broadcast.
type BroadcastService interface {
	Run(ctx context.Context) (entity.BroadcastReport, error)
}
