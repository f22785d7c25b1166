package messenger

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	"github.com/diegoclair/course-reminder-bot/mocks"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

func TestSlack_SendText(t *testing.T) {
	tests := []struct {
		name    string
		postErr error
		wantErr bool
	}{
		{name: "Should post the message"},
		{name: "Should tag delivery failures", postErr: errors.New("channel_not_found"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			api := mocks.NewMockSlackAPI(ctrl)
			api.EXPECT().
				PostMessageContext(gomock.Any(), "C1", gomock.Any(), gomock.Any()).
				Return("C1", "1700000000.000100", tt.postErr).Times(1)

			err := NewSlack(api, zap.NewNop()).SendText(context.Background(), "C1", "提醒")
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrDelivery)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSlack_SendImage(t *testing.T) {
	artifact := &entity.Artifact{Name: "timetable.png", ContentType: "image/png", Data: []byte("PNGDATA")}

	t.Run("Should upload the artifact to the channel", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		api := mocks.NewMockSlackAPI(ctrl)
		api.EXPECT().
			UploadFileV2Context(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
				assert.Equal(t, "C1", params.Channel)
				assert.Equal(t, "timetable.png", params.Filename)
				assert.Equal(t, 7, params.FileSize)

				data, err := io.ReadAll(params.Reader)
				require.NoError(t, err)
				assert.Equal(t, "PNGDATA", string(data))
				return &slack.FileSummary{ID: "F1"}, nil
			}).Times(1)

		err := NewSlack(api, zap.NewNop()).SendImage(context.Background(), "C1", artifact)
		assert.NoError(t, err)
	})

	t.Run("Should upload to the direct message channel of a user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		api := mocks.NewMockSlackAPI(ctrl)
		api.EXPECT().
			OpenConversationContext(gomock.Any(), &slack.OpenConversationParameters{Users: []string{"U1"}, ReturnIM: true}).
			Return(&slack.Channel{GroupConversation: slack.GroupConversation{Conversation: slack.Conversation{ID: "D1"}}}, false, false, nil).
			Times(1)
		api.EXPECT().
			UploadFileV2Context(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
				assert.Equal(t, "D1", params.Channel)
				return &slack.FileSummary{ID: "F1"}, nil
			}).Times(1)

		err := NewSlack(api, zap.NewNop()).SendImage(context.Background(), "U1", artifact)
		assert.NoError(t, err)
	})

	t.Run("Should tag direct message failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		api := mocks.NewMockSlackAPI(ctrl)
		api.EXPECT().OpenConversationContext(gomock.Any(), gomock.Any()).Return(nil, false, false, errors.New("user_not_found"))

		err := NewSlack(api, zap.NewNop()).SendImage(context.Background(), "U1", artifact)
		assert.ErrorIs(t, err, apperrors.ErrDelivery)
	})

	t.Run("Should tag upload failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		api := mocks.NewMockSlackAPI(ctrl)
		api.EXPECT().UploadFileV2Context(gomock.Any(), gomock.Any()).Return(nil, errors.New("not_in_channel"))

		err := NewSlack(api, zap.NewNop()).SendImage(context.Background(), "C1", artifact)
		assert.ErrorIs(t, err, apperrors.ErrDelivery)
	})

	t.Run("Should refuse an empty artifact", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		err := NewSlack(mocks.NewMockSlackAPI(ctrl), zap.NewNop()).SendImage(context.Background(), "C1", &entity.Artifact{})
		assert.ErrorIs(t, err, apperrors.ErrDelivery)
	})
}
