package messenger

//go:generate go run go.uber.org/mock/mockgen -source=slack.go -destination=../../mocks/slack_mock.go -package=mocks

import (
	"bytes"
	"context"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

// SlackAPI is the part of *slack.Client the messenger uses.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
}

// Slack delivers messages to Slack channels.
type Slack struct {
	api    SlackAPI
	logger *zap.Logger
}

func NewSlack(api SlackAPI, logger *zap.Logger) *Slack {
	return &Slack{api: api, logger: logger}
}

func (s *Slack) SendText(ctx context.Context, target, text string) error {
	_, _, err := s.api.PostMessageContext(ctx, target,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAsUser(false),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDelivery, "failed to post slack message")
	}
	return nil
}

func (s *Slack) SendImage(ctx context.Context, target string, artifact *entity.Artifact) error {
	if artifact == nil || len(artifact.Data) == 0 {
		return apperrors.New(apperrors.ErrDelivery.Code, "nothing to upload")
	}

	channel, err := s.conversation(ctx, target)
	if err != nil {
		return err
	}

	file, err := s.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:  channel,
		Reader:   bytes.NewReader(artifact.Data),
		FileSize: len(artifact.Data),
		Filename: artifact.Name,
		Title:    artifact.Name,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDelivery, "failed to upload timetable")
	}

	s.logger.Debug("timetable uploaded", zap.String("channel", channel), zap.String("file_id", file.ID))
	return nil
}

// conversation maps a user id to the bot's direct message channel with that
// user. Uploads need a channel id; chat.postMessage takes user ids as is.
func (s *Slack) conversation(ctx context.Context, target string) (string, error) {
	if !isUserID(target) {
		return target, nil
	}

	channel, _, _, err := s.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{target},
		ReturnIM: true,
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrDelivery, "failed to open direct message")
	}
	return channel.ID, nil
}

func isUserID(target string) bool {
	return strings.HasPrefix(target, "U") || strings.HasPrefix(target, "W")
}
