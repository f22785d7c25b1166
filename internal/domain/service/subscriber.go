package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

type subscriberService struct {
	dm     contract.DataManager
	logger *zap.Logger
}

func newSubscriber(dm contract.DataManager, logger *zap.Logger) *subscriberService {
	return &subscriberService{
		dm:     dm,
		logger: logger,
	}
}

// Register stores the subscriber, replacing every field of an existing
// record for the same user. It reports whether a record was replaced.
func (s *subscriberService) Register(userID string, platform entity.Platform, target, account, secret string) (bool, error) {
	var replaced bool

	err := s.dm.WithTransaction(context.Background(), func(tx contract.DataManager) error {
		existing, err := tx.Subscriber().GetByUserID(userID)
		if err != nil {
			return fmt.Errorf("failed to check subscriber: %w", err)
		}

		if existing != nil {
			if err := tx.Subscriber().Delete(userID); err != nil {
				return fmt.Errorf("failed to remove previous subscriber: %w", err)
			}
			replaced = true
		}

		subscriber := &entity.Subscriber{
			UserID:         userID,
			Platform:       platform,
			DeliveryTarget: target,
			Account:        account,
			Secret:         secret,
			Enabled:        true,
		}
		if err := tx.Subscriber().Create(subscriber); err != nil {
			return fmt.Errorf("failed to create subscriber: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("subscriber registered",
		zap.String("user_id", userID),
		zap.String("platform", string(platform)),
		zap.Bool("replaced", replaced))

	return replaced, nil
}

// Unregister deletes the subscriber. It reports false when there was none.
func (s *subscriberService) Unregister(userID string) (bool, error) {
	existing, err := s.dm.Subscriber().GetByUserID(userID)
	if err != nil {
		return false, fmt.Errorf("failed to check subscriber: %w", err)
	}
	if existing == nil {
		return false, nil
	}

	if err := s.dm.Subscriber().Delete(userID); err != nil {
		return false, fmt.Errorf("failed to delete subscriber: %w", err)
	}

	s.logger.Info("subscriber unregistered", zap.String("user_id", userID))
	return true, nil
}

func (s *subscriberService) Enable(userID string) error {
	return s.setEnabled(userID, true)
}

func (s *subscriberService) Disable(userID string) error {
	return s.setEnabled(userID, false)
}

func (s *subscriberService) setEnabled(userID string, enabled bool) error {
	existing, err := s.dm.Subscriber().GetByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to check subscriber: %w", err)
	}
	if existing == nil {
		return apperrors.ErrNotRegistered
	}

	if err := s.dm.Subscriber().SetEnabled(userID, enabled); err != nil {
		return fmt.Errorf("failed to update subscriber: %w", err)
	}

	s.logger.Info("subscriber toggled", zap.String("user_id", userID), zap.Bool("enabled", enabled))
	return nil
}

// Get returns the subscriber or ErrNotRegistered.
func (s *subscriberService) Get(userID string) (*entity.Subscriber, error) {
	subscriber, err := s.dm.Subscriber().GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	if subscriber == nil {
		return nil, apperrors.ErrNotRegistered
	}
	return subscriber, nil
}

func (s *subscriberService) ListEnabled() ([]*entity.Subscriber, error) {
	subscribers, err := s.dm.Subscriber().GetEnabled()
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled subscribers: %w", err)
	}
	return subscribers, nil
}
