package service

import (
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/metrics"
)

// Options groups the per-service settings.
type Options struct {
	Timetable TimetableOptions
	Registry  RegistryOptions
}

type Instance struct {
	Subscriber *subscriberService
	Feedback   *feedbackService
	Timetable  *timetableService
	Scheduler  *reminderRegistry
	Broadcast  *broadcastService
}

func NewInstance(
	dm contract.DataManager,
	source contract.TimetableSource,
	renderer contract.Renderer,
	messenger contract.Messenger,
	opts Options,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Instance {
	subscriberService := newSubscriber(dm, logger.Named("subscriber"))
	feedbackService := newFeedback(dm, logger.Named("feedback"))
	timetableService := newTimetable(source, renderer, subscriberService, opts.Timetable, logger.Named("timetable"))
	registry := newReminderRegistry(messenger, opts.Registry, m, logger.Named("scheduler"))

	broadcastService := newBroadcast(
		subscriberService,
		timetableService,
		registry,
		messenger,
		opts.Timetable.Location,
		opts.Registry.DeliveryTimeout,
		m,
		logger.Named("broadcast"),
	)
	registry.SetBroadcaster(broadcastService) // set after creation, the two reference each other

	return &Instance{
		Subscriber: subscriberService,
		Feedback:   feedbackService,
		Timetable:  timetableService,
		Scheduler:  registry,
		Broadcast:  broadcastService,
	}
}
