package contract

//go:generate go run go.uber.org/mock/mockgen -source=repo.go -destination=../../../mocks/repo_mock.go -package=mocks

import (
	"context"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

// DataManager aggregates all repository interfaces
type DataManager interface {
	WithTransaction(ctx context.Context, fn func(dm DataManager) error) error
	Subscriber() SubscriberRepo
	Feedback() FeedbackRepo
}

// SubscriberRepo defines the contract for subscriber repository
type SubscriberRepo interface {
	Create(subscriber *entity.Subscriber) error
	GetByUserID(userID string) (*entity.Subscriber, error)
	Delete(userID string) error
	GetEnabled() ([]*entity.Subscriber, error)
	SetEnabled(userID string, enabled bool) error
}

// FeedbackRepo stores user feedback
type FeedbackRepo interface {
	Create(feedback *entity.Feedback) error
}
