package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain"
	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	"github.com/diegoclair/course-reminder-bot/internal/timetable"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

// TimetableOptions carries the settings the orchestrator needs from config.
type TimetableOptions struct {
	SemesterStart time.Time
	Location      *time.Location
	FetchTimeout  time.Duration
	RenderTimeout time.Duration
}

type timetableService struct {
	source      contract.TimetableSource
	renderer    contract.Renderer
	subscribers contract.SubscriberService
	opts        TimetableOptions
	logger      *zap.Logger
	now         func() time.Time
}

func newTimetable(source contract.TimetableSource, renderer contract.Renderer, subscribers contract.SubscriberService, opts TimetableOptions, logger *zap.Logger) *timetableService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &timetableService{
		source:      source,
		renderer:    renderer,
		subscribers: subscribers,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// Fetch logs into the portal with the given credentials and returns the
// courses held on now's weekday together with their reminders.
func (s *timetableService) Fetch(ctx context.Context, account, secret string, now time.Time) (*entity.TodayTimetable, error) {
	now = now.In(s.opts.Location)

	session, err := s.authenticate(ctx, account, secret)
	if err != nil {
		return nil, err
	}

	page, err := s.fetchPage(ctx, session, now)
	if err != nil {
		return nil, err
	}

	courses, err := timetable.ParseString(page)
	if err != nil {
		return nil, err
	}

	weekday := domain.ISOWeekday(now)
	today := timetable.OnWeekday(courses, weekday)
	reminders, skipped := timetable.DeriveReminders(today)
	if skipped > 0 {
		s.logger.Warn("courses without a usable reminder time",
			zap.String("account", account),
			zap.Int("skipped", skipped))
	}

	return &entity.TodayTimetable{
		Courses:   today,
		Week:      timetable.WeekNumber(s.opts.SemesterStart, now),
		Weekday:   weekday,
		Reminders: reminders,
	}, nil
}

func (s *timetableService) authenticate(ctx context.Context, account, secret string) (contract.Session, error) {
	ctx, cancel := withTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	session, err := s.source.Authenticate(ctx, account, secret)
	if err != nil {
		return nil, classify(err, apperrors.ErrAuth)
	}
	return session, nil
}

func (s *timetableService) fetchPage(ctx context.Context, session contract.Session, now time.Time) (string, error) {
	ctx, cancel := withTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	page, err := s.source.FetchTimetableHTML(ctx, session, now)
	if err != nil {
		return "", classify(err, apperrors.ErrFetch)
	}
	return page, nil
}

// Today fetches the timetable of a registered user for the current day.
func (s *timetableService) Today(ctx context.Context, userID string) (*entity.TodayTimetable, error) {
	subscriber, err := s.subscribers.Get(userID)
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, subscriber.Account, subscriber.Secret, s.now())
}

// Render turns today's courses into an artifact ready for upload.
func (s *timetableService) Render(ctx context.Context, today *entity.TodayTimetable) (*entity.Artifact, error) {
	ctx, cancel := withTimeout(ctx, s.opts.RenderTimeout)
	defer cancel()

	view := entity.TimetableView{
		Week:         today.Week,
		WeekdayLabel: domain.WeekdayLabels[today.Weekday],
		Courses:      today.Courses,
	}

	artifact, err := s.renderer.Render(ctx, view)
	if err != nil {
		return nil, classify(err, apperrors.ErrRender)
	}
	return artifact, nil
}

// withTimeout bounds ctx by d. A non-positive d means no extra bound.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// classify keeps an error that already carries a code and tags anything
// else with base.
func classify(err error, base *apperrors.Error) error {
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return apperrors.Wrap(err, base, "")
}
