package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	"github.com/diegoclair/course-reminder-bot/internal/metrics"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

var broadcastNow = time.Date(2025, 3, 3, 7, 55, 0, 0, testLocation)

func newTestBroadcast(m allMocks) *broadcastService {
	b := newBroadcast(
		m.mockSubscriberService,
		m.mockTimetableService,
		m.mockScheduler,
		m.mockMessenger,
		testLocation,
		time.Second,
		metrics.New(nil),
		zap.NewNop(),
	)
	b.now = func() time.Time { return broadcastNow }
	return b
}

func mondayTimetable() *entity.TodayTimetable {
	return &entity.TodayTimetable{
		Week:    3,
		Weekday: 1,
		Courses: []entity.CourseRecord{
			{CourseName: "早读", ReminderTime: "7:50"},
			{CourseName: "高等数学", ReminderTime: "8:00"},
		},
		Reminders: []entity.Reminder{
			{FireAt: entity.ClockTime{Hour: 7, Minute: 50}, Raw: "7:50", Text: "早读提醒"},
			{FireAt: entity.ClockTime{Hour: 8, Minute: 0}, Raw: "8:00", Text: "高数提醒"},
		},
	}
}

func Test_broadcastService_Run(t *testing.T) {
	subX := &entity.Subscriber{UserID: "X", DeliveryTarget: "CX", Account: "ax", Secret: "sx", Enabled: true}
	subY := &entity.Subscriber{UserID: "Y", DeliveryTarget: "CY", Account: "ay", Secret: "sy", Enabled: true}
	artifact := &entity.Artifact{Name: "timetable.png", ContentType: "image/png", Data: []byte{0x89}}

	tests := []struct {
		name       string
		buildMock  func(mocks allMocks)
		wantReport entity.BroadcastReport
		wantErr    bool
	}{
		{
			name: "Should disable the failing subscriber and still serve the next one",
			buildMock: func(mocks allMocks) {
				mocks.mockSubscriberService.EXPECT().ListEnabled().Return([]*entity.Subscriber{subX, subY}, nil)

				mocks.mockTimetableService.EXPECT().
					Fetch(gomock.Any(), "ax", "sx", broadcastNow).
					Return(nil, apperrors.Wrap(errors.New("bad password"), apperrors.ErrAuth, ""))
				mocks.mockSubscriberService.EXPECT().Disable("X").Return(nil)
				mocks.mockScheduler.EXPECT().CancelUser("X").Return(0)
				mocks.mockMessenger.EXPECT().SendText(gomock.Any(), "CX", "获取X课程信息失败已自动关闭订阅").Return(nil)

				today := mondayTimetable()
				mocks.mockTimetableService.EXPECT().Fetch(gomock.Any(), "ay", "sy", broadcastNow).Return(today, nil)
				mocks.mockTimetableService.EXPECT().Render(gomock.Any(), today).Return(artifact, nil)
				mocks.mockMessenger.EXPECT().SendImage(gomock.Any(), "CY", artifact).Return(nil)
				mocks.mockScheduler.EXPECT().
					Schedule(subY, time.Date(2025, 3, 3, 8, 0, 0, 0, testLocation), "8:00", "高数提醒").
					Return(entity.ReminderJob{ID: "reminder_Y_8:00"}, nil).Times(1)
			},
			wantReport: entity.BroadcastReport{Succeeded: 1, Failed: 1, JobsScheduled: 1},
		},
		{
			name: "Should send a notice when there are no courses",
			buildMock: func(mocks allMocks) {
				mocks.mockSubscriberService.EXPECT().ListEnabled().Return([]*entity.Subscriber{subY}, nil)
				mocks.mockTimetableService.EXPECT().Fetch(gomock.Any(), "ay", "sy", broadcastNow).
					Return(&entity.TodayTimetable{Week: 3, Weekday: 1}, nil)
				mocks.mockMessenger.EXPECT().SendText(gomock.Any(), "CY", "未获取到Y课程信息").Return(nil)
			},
			wantReport: entity.BroadcastReport{Empty: 1},
		},
		{
			name: "Should disable the subscriber when rendering fails",
			buildMock: func(mocks allMocks) {
				today := mondayTimetable()
				mocks.mockSubscriberService.EXPECT().ListEnabled().Return([]*entity.Subscriber{subY}, nil)
				mocks.mockTimetableService.EXPECT().Fetch(gomock.Any(), "ay", "sy", broadcastNow).Return(today, nil)
				mocks.mockTimetableService.EXPECT().Render(gomock.Any(), today).
					Return(nil, apperrors.Wrap(errors.New("exit status 1"), apperrors.ErrRender, ""))
				mocks.mockSubscriberService.EXPECT().Disable("Y").Return(nil)
				mocks.mockScheduler.EXPECT().CancelUser("Y").Return(0)
				mocks.mockMessenger.EXPECT().SendText(gomock.Any(), "CY", "获取Y课程信息失败已自动关闭订阅").Return(nil)
			},
			wantReport: entity.BroadcastReport{Failed: 1},
		},
		{
			name: "Should disable the subscriber when the image cannot be delivered",
			buildMock: func(mocks allMocks) {
				today := mondayTimetable()
				mocks.mockSubscriberService.EXPECT().ListEnabled().Return([]*entity.Subscriber{subY}, nil)
				mocks.mockTimetableService.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(today, nil)
				mocks.mockTimetableService.EXPECT().Render(gomock.Any(), today).Return(artifact, nil)
				mocks.mockMessenger.EXPECT().SendImage(gomock.Any(), "CY", artifact).Return(apperrors.ErrDelivery)
				mocks.mockSubscriberService.EXPECT().Disable("Y").Return(nil)
				mocks.mockScheduler.EXPECT().CancelUser("Y").Return(0)
				mocks.mockMessenger.EXPECT().SendText(gomock.Any(), "CY", "获取Y课程信息失败已自动关闭订阅").Return(errors.New("still down"))
			},
			wantReport: entity.BroadcastReport{Failed: 1},
		},
		{
			name: "Should skip reminders the registry reports as past due",
			buildMock: func(mocks allMocks) {
				today := mondayTimetable()
				mocks.mockSubscriberService.EXPECT().ListEnabled().Return([]*entity.Subscriber{subY}, nil)
				mocks.mockTimetableService.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(today, nil)
				mocks.mockTimetableService.EXPECT().Render(gomock.Any(), today).Return(artifact, nil)
				mocks.mockMessenger.EXPECT().SendImage(gomock.Any(), "CY", artifact).Return(nil)
				mocks.mockScheduler.EXPECT().Schedule(gomock.Any(), gomock.Any(), "8:00", gomock.Any()).
					Return(entity.ReminderJob{}, apperrors.ErrPastDue)
			},
			wantReport: entity.BroadcastReport{Succeeded: 1},
		},
		{
			name: "Should return error when subscribers cannot be loaded",
			buildMock: func(mocks allMocks) {
				mocks.mockSubscriberService.EXPECT().ListEnabled().Return(nil, errors.New("db closed"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ctrl := newServiceTestMock(t)
			defer ctrl.Finish()

			tt.buildMock(m)

			b := newTestBroadcast(m)
			report, err := b.Run(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.NotEmpty(t, report.RunID)
			report.RunID = ""
			assert.Equal(t, tt.wantReport, report)
		})
	}
}

func Test_broadcastService_Run_CollapsesOverlappingRuns(t *testing.T) {
	m, ctrl := newServiceTestMock(t)
	defer ctrl.Finish()

	started := make(chan struct{})
	release := make(chan struct{})
	m.mockSubscriberService.EXPECT().
		ListEnabled().
		DoAndReturn(func() ([]*entity.Subscriber, error) {
			close(started)
			<-release
			return nil, nil
		}).Times(1)

	b := newTestBroadcast(m)

	var (
		wg      sync.WaitGroup
		reports [2]entity.BroadcastReport
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reports[0], _ = b.Run(context.Background())
	}()

	<-started
	go func() {
		defer wg.Done()
		reports[1], _ = b.Run(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, reports[0].RunID, reports[1].RunID)
}

func Test_broadcastService_Run_IgnoresCallerDeadline(t *testing.T) {
	m, ctrl := newServiceTestMock(t)
	defer ctrl.Finish()

	subA := &entity.Subscriber{UserID: "A", DeliveryTarget: "CA", Account: "aa", Secret: "sa", Enabled: true}
	subB := &entity.Subscriber{UserID: "B", DeliveryTarget: "CB", Account: "ab", Secret: "sb", Enabled: true}

	m.mockSubscriberService.EXPECT().ListEnabled().Return([]*entity.Subscriber{subA, subB}, nil)
	m.mockTimetableService.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any(), broadcastNow).
		DoAndReturn(func(ctx context.Context, _, _ string, _ time.Time) (*entity.TodayTimetable, error) {
			if err := ctx.Err(); err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrFetch, "")
			}
			return &entity.TodayTimetable{Week: 3, Weekday: 1}, nil
		}).Times(2)
	m.mockMessenger.EXPECT().
		SendText(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string) error {
			return ctx.Err()
		}).Times(2)
	m.mockSubscriberService.EXPECT().Disable(gomock.Any()).Times(0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	report, err := newTestBroadcast(m).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Empty)
	assert.Zero(t, report.Failed)
}
