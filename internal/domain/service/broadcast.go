package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	"github.com/diegoclair/course-reminder-bot/internal/metrics"
	"github.com/diegoclair/course-reminder-bot/internal/timetable"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

const broadcastKey = "daily_broadcast"

type broadcastService struct {
	subscribers     contract.SubscriberService
	timetable       contract.TimetableService
	scheduler       contract.ReminderScheduler
	messenger       contract.Messenger
	location        *time.Location
	deliveryTimeout time.Duration
	group           singleflight.Group
	metrics         *metrics.Metrics
	logger          *zap.Logger
	now             func() time.Time
}

func newBroadcast(
	subscribers contract.SubscriberService,
	timetableSvc contract.TimetableService,
	scheduler contract.ReminderScheduler,
	messenger contract.Messenger,
	location *time.Location,
	deliveryTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *broadcastService {
	if location == nil {
		location = time.Local
	}
	return &broadcastService{
		subscribers:     subscribers,
		timetable:       timetableSvc,
		scheduler:       scheduler,
		messenger:       messenger,
		location:        location,
		deliveryTimeout: deliveryTimeout,
		metrics:         m,
		logger:          logger,
		now:             time.Now,
	}
}

// Run sends today's timetable to every enabled subscriber and schedules
// their class reminders. A call made while a run is in progress waits for
// that run and shares its report. The run outlives the caller's deadline;
// only the per-call portal, render and delivery timeouts bound it.
func (s *broadcastService) Run(ctx context.Context) (entity.BroadcastReport, error) {
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(broadcastKey, func() (interface{}, error) {
		return s.run(runCtx)
	})
	if shared {
		s.logger.Info("broadcast already running, joined it")
	}

	report, _ := v.(entity.BroadcastReport)
	return report, err
}

func (s *broadcastService) run(ctx context.Context) (entity.BroadcastReport, error) {
	report := entity.BroadcastReport{RunID: uuid.NewString()}
	logger := s.logger.With(zap.String("run_id", report.RunID))

	s.metrics.BroadcastRuns.Inc()

	subscribers, err := s.subscribers.ListEnabled()
	if err != nil {
		return report, fmt.Errorf("failed to load subscribers: %w", err)
	}

	now := s.now().In(s.location)
	logger.Info("broadcast started", zap.Int("subscribers", len(subscribers)))

	for _, sub := range subscribers {
		subLogger := logger.With(zap.String("user_id", sub.UserID))

		jobs, err := s.deliver(ctx, sub, now, subLogger)
		switch {
		case err != nil:
			report.Failed++
			s.metrics.BroadcastSubscribers.WithLabelValues(metrics.ResultFailed).Inc()
			subLogger.Error("broadcast failed for subscriber", zap.Error(err))
			s.disable(ctx, sub, subLogger)
			continue
		case jobs < 0:
			report.Empty++
			s.metrics.BroadcastSubscribers.WithLabelValues(metrics.ResultEmpty).Inc()
		default:
			report.Succeeded++
			report.JobsScheduled += jobs
			s.metrics.BroadcastSubscribers.WithLabelValues(metrics.ResultSucceeded).Inc()
		}
	}

	logger.Info("broadcast finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("empty", report.Empty),
		zap.Int("failed", report.Failed),
		zap.Int("jobs_scheduled", report.JobsScheduled))

	return report, nil
}

// deliver handles one subscriber. It returns the number of reminders
// scheduled, or -1 when the subscriber has no classes today.
func (s *broadcastService) deliver(ctx context.Context, sub *entity.Subscriber, now time.Time, logger *zap.Logger) (int, error) {
	today, err := s.timetable.Fetch(ctx, sub.Account, sub.Secret, now)
	if err != nil {
		return 0, err
	}

	if len(today.Courses) == 0 {
		if err := s.sendText(ctx, sub.DeliveryTarget, fmt.Sprintf("未获取到%s课程信息", sub.UserID)); err != nil {
			return 0, err
		}
		logger.Info("no courses today")
		return -1, nil
	}

	artifact, err := s.timetable.Render(ctx, today)
	if err != nil {
		return 0, err
	}

	sendCtx, cancel := s.deliveryContext(ctx)
	err = s.messenger.SendImage(sendCtx, sub.DeliveryTarget, artifact)
	cancel()
	if err != nil {
		return 0, err
	}

	scheduled := 0
	for _, r := range timetable.Upcoming(today.Reminders, now) {
		_, err := s.scheduler.Schedule(sub, r.FireAt.On(now), r.Raw, r.Text)
		if err != nil {
			if errors.Is(err, apperrors.ErrPastDue) {
				logger.Info("reminder already past due", zap.String("reminder_time", r.Raw))
			} else {
				logger.Warn("failed to schedule reminder", zap.String("reminder_time", r.Raw), zap.Error(err))
			}
			continue
		}
		scheduled++
	}

	logger.Info("timetable delivered",
		zap.Int("courses", len(today.Courses)),
		zap.Int("reminders", scheduled))
	return scheduled, nil
}

func (s *broadcastService) disable(ctx context.Context, sub *entity.Subscriber, logger *zap.Logger) {
	if err := s.subscribers.Disable(sub.UserID); err != nil {
		logger.Error("failed to disable subscriber", zap.Error(err))
	}
	s.scheduler.CancelUser(sub.UserID)

	notice := fmt.Sprintf("获取%s课程信息失败已自动关闭订阅", sub.UserID)
	if err := s.sendText(ctx, sub.DeliveryTarget, notice); err != nil {
		logger.Error("failed to send disable notice", zap.Error(err))
	}
}

func (s *broadcastService) sendText(ctx context.Context, target, text string) error {
	ctx, cancel := s.deliveryContext(ctx)
	defer cancel()
	return s.messenger.SendText(ctx, target, text)
}

func (s *broadcastService) deliveryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.deliveryTimeout)
}
