package test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/handlers"
	"github.com/diegoclair/course-reminder-bot/mocks"
)

const SigningSecret = "test-signing-secret"

var Location = time.FixedZone("CST", 8*60*60)

type ServiceMocks struct {
	SubscriberServiceMock *mocks.MockSubscriberService
	FeedbackServiceMock   *mocks.MockFeedbackService
	TimetableServiceMock  *mocks.MockTimetableService
	SchedulerMock         *mocks.MockReminderScheduler
	BroadcastServiceMock  *mocks.MockBroadcastService
	MessengerMock         *mocks.MockMessenger
}

func GetHandlerTest(t *testing.T) (m ServiceMocks, handler *handlers.SlackHandler, ctrl *gomock.Controller) {
	t.Helper()

	ctrl = gomock.NewController(t)
	m = ServiceMocks{
		SubscriberServiceMock: mocks.NewMockSubscriberService(ctrl),
		FeedbackServiceMock:   mocks.NewMockFeedbackService(ctrl),
		TimetableServiceMock:  mocks.NewMockTimetableService(ctrl),
		SchedulerMock:         mocks.NewMockReminderScheduler(ctrl),
		BroadcastServiceMock:  mocks.NewMockBroadcastService(ctrl),
		MessengerMock:         mocks.NewMockMessenger(ctrl),
	}

	handler = handlers.New(
		m.SubscriberServiceMock,
		m.FeedbackServiceMock,
		m.TimetableServiceMock,
		m.SchedulerMock,
		m.BroadcastServiceMock,
		m.MessengerMock,
		SigningSecret,
		Location,
		zap.NewNop(),
	)

	return
}

// CreateSlackRequest creates a properly signed Slack slash command request
func CreateSlackRequest(t *testing.T, command, text, channelID, userID, signingSecret string) *http.Request {
	t.Helper()

	form := url.Values{
		"token":        {"test-token"},
		"team_id":      {"T123456789"},
		"team_domain":  {"test-team"},
		"channel_id":   {channelID},
		"channel_name": {"test-channel"},
		"user_id":      {userID},
		"user_name":    {"test-user"},
		"command":      {command},
		"text":         {text},
		"response_url": {"https://hooks.slack.com/commands/test"},
		"trigger_id":   {"test-trigger-id"},
	}
	body := form.Encode()

	req, err := http.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body))
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("X-Slack-Signature", generateSlackSignature(signingSecret, timestamp, body))

	return req
}

func generateSlackSignature(signingSecret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	signature := hex.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("v0=%s", signature)
}

func CreateTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
