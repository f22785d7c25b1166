package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

func TestFeedbackRepo_Create(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewInstance(db).Feedback()

	first := &entity.Feedback{UserID: "U1", Content: "提醒来得太早"}
	require.NoError(t, repo.Create(first))
	second := &entity.Feedback{UserID: "U1", Content: "希望支持周视图"}
	require.NoError(t, repo.Create(second))

	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	var (
		count   int
		content string
	)
	require.NoError(t, db.conn.QueryRow(`SELECT COUNT(*) FROM feedback WHERE user_id = ?`, "U1").Scan(&count))
	assert.Equal(t, 2, count)
	require.NoError(t, db.conn.QueryRow(`SELECT content FROM feedback WHERE id = ?`, first.ID).Scan(&content))
	assert.Equal(t, "提醒来得太早", content)
}
