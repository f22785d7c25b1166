package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

type subscriberRepo struct {
	db dbConn
}

func newSubscriberRepo(db dbConn) contract.SubscriberRepo {
	return &subscriberRepo{db: db}
}

const subscriberColumns = `id, user_id, platform, delivery_target, account, secret, is_enabled, created_at, updated_at`

func (r *subscriberRepo) Create(subscriber *entity.Subscriber) error {
	query := `
		INSERT INTO subscribers (user_id, platform, delivery_target, account, secret, is_enabled)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		subscriber.UserID,
		string(subscriber.Platform),
		subscriber.DeliveryTarget,
		subscriber.Account,
		subscriber.Secret,
		subscriber.Enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	subscriber.ID = id
	return nil
}

func (r *subscriberRepo) GetByUserID(userID string) (*entity.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE user_id = ?`

	subscriber, err := scanSubscriber(r.db.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}

	return subscriber, nil
}

func (r *subscriberRepo) Delete(userID string) error {
	query := `DELETE FROM subscribers WHERE user_id = ?`

	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}

	return nil
}

func (r *subscriberRepo) GetEnabled() ([]*entity.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE is_enabled = 1 ORDER BY id ASC`
	return r.list(query)
}

func (r *subscriberRepo) SetEnabled(userID string, enabled bool) error {
	query := `
		UPDATE subscribers SET
			is_enabled = ?,
			updated_at = ?
		WHERE user_id = ?
	`

	_, err := r.db.Exec(query, enabled, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set subscriber enabled status: %w", err)
	}

	return nil
}

func (r *subscriberRepo) list(query string, args ...interface{}) ([]*entity.Subscriber, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []*entity.Subscriber
	for rows.Next() {
		subscriber, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, subscriber)
	}

	return subscribers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscriber(row rowScanner) (*entity.Subscriber, error) {
	subscriber := &entity.Subscriber{}
	var platform string
	err := row.Scan(
		&subscriber.ID,
		&subscriber.UserID,
		&platform,
		&subscriber.DeliveryTarget,
		&subscriber.Account,
		&subscriber.Secret,
		&subscriber.Enabled,
		&subscriber.CreatedAt,
		&subscriber.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	subscriber.Platform = entity.Platform(platform)
	return subscriber, nil
}
