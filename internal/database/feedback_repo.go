package database

import (
	"fmt"

	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

type feedbackRepo struct {
	db dbConn
}

func newFeedbackRepo(db dbConn) contract.FeedbackRepo {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(feedback *entity.Feedback) error {
	query := `INSERT INTO feedback (user_id, content) VALUES (?, ?)`

	result, err := r.db.Exec(query, feedback.UserID, feedback.Content)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	feedback.ID = id
	return nil
}
