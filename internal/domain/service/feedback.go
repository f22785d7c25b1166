package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

const maxFeedbackLength = 1000

type feedbackService struct {
	dm     contract.DataManager
	logger *zap.Logger
}

func newFeedback(dm contract.DataManager, logger *zap.Logger) *feedbackService {
	return &feedbackService{
		dm:     dm,
		logger: logger,
	}
}

// Submit stores the note. Blank notes are rejected and long ones cut to
// maxFeedbackLength characters.
func (s *feedbackService) Submit(userID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("feedback is empty")
	}
	if utf8.RuneCountInString(content) > maxFeedbackLength {
		content = string([]rune(content)[:maxFeedbackLength])
	}

	feedback := &entity.Feedback{UserID: userID, Content: content}
	if err := s.dm.Feedback().Create(feedback); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	s.logger.Info("feedback received", zap.String("user_id", userID), zap.Int64("feedback_id", feedback.ID))
	return nil
}
