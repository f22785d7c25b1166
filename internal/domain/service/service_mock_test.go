package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/metrics"
	"github.com/diegoclair/course-reminder-bot/mocks"
)

type allMocks struct {
	mockDataManager       *mocks.MockDataManager
	mockSubscriberRepo    *mocks.MockSubscriberRepo
	mockFeedbackRepo      *mocks.MockFeedbackRepo
	mockTimetableSource   *mocks.MockTimetableSource
	mockSession           *mocks.MockSession
	mockRenderer          *mocks.MockRenderer
	mockMessenger         *mocks.MockMessenger
	mockSubscriberService *mocks.MockSubscriberService
	mockTimetableService  *mocks.MockTimetableService
	mockScheduler         *mocks.MockReminderScheduler
}

var testLocation = time.FixedZone("CST", 8*60*60)

func newServiceTestMock(t *testing.T) (m allMocks, ctrl *gomock.Controller) {
	t.Helper()

	ctrl = gomock.NewController(t)

	dm := mocks.NewMockDataManager(ctrl)

	subscriberRepo := mocks.NewMockSubscriberRepo(ctrl)
	dm.EXPECT().Subscriber().Return(subscriberRepo).AnyTimes()

	feedbackRepo := mocks.NewMockFeedbackRepo(ctrl)
	dm.EXPECT().Feedback().Return(feedbackRepo).AnyTimes()

	m = allMocks{
		mockDataManager:       dm,
		mockSubscriberRepo:    subscriberRepo,
		mockFeedbackRepo:      feedbackRepo,
		mockTimetableSource:   mocks.NewMockTimetableSource(ctrl),
		mockSession:           mocks.NewMockSession(ctrl),
		mockRenderer:          mocks.NewMockRenderer(ctrl),
		mockMessenger:         mocks.NewMockMessenger(ctrl),
		mockSubscriberService: mocks.NewMockSubscriberService(ctrl),
		mockTimetableService:  mocks.NewMockTimetableService(ctrl),
		mockScheduler:         mocks.NewMockReminderScheduler(ctrl),
	}

	// validate service creation
	instance := NewInstance(dm, m.mockTimetableSource, m.mockRenderer, m.mockMessenger, Options{}, metrics.New(nil), zap.NewNop())
	require.NotNil(t, instance.Subscriber)
	require.NotNil(t, instance.Feedback)
	require.NotNil(t, instance.Timetable)
	require.NotNil(t, instance.Scheduler)
	require.NotNil(t, instance.Broadcast)

	return
}

// passThroughTx runs transactional callbacks against the same mocked DataManager.
func passThroughTx(m allMocks) {
	m.mockDataManager.EXPECT().
		WithTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(contract.DataManager) error) error {
			return fn(m.mockDataManager)
		}).AnyTimes()
}
