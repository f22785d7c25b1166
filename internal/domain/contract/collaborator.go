package contract

//go:generate go run go.uber.org/mock/mockgen -source=collaborator.go -destination=../../../mocks/collaborator_mock.go -package=mocks

import (
	"context"
	"time"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

// Session is an authenticated portal session.
type Session interface {
	Account() string
}

// TimetableSource logs into the course portal and returns timetable pages.
type TimetableSource interface {
	Authenticate(ctx context.Context, account, secret string) (Session, error)
	FetchTimetableHTML(ctx context.Context, session Session, date time.Time) (string, error)
}

// Renderer turns a day's courses into an image or document.
type Renderer interface {
	Render(ctx context.Context, view entity.TimetableView) (*entity.Artifact, error)
}

// Messenger delivers outbound messages to a subscriber's delivery target.
type Messenger interface {
	SendText(ctx context.Context, target, text string) error
	SendImage(ctx context.Context, target string, artifact *entity.Artifact) error
}
