package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/social-media/social-backend/internal/repository"
	"github.com/social-media/social-backend/pkg/logger"
	"github.com/social-media/social-backend/pkg/queue"
)

type FollowService struct {
	userRepo   *repository.UserRepository
	followRepo *repository.FollowRepository
	producer   queue.Publisher
	logger     *logger.Logger
}

func NewFollowService(userRepo *repository.UserRepository, followRepo *repository.FollowRepository, producer queue.Publisher, logger *logger.Logger) *FollowService {
	return &FollowService{
		userRepo:   userRepo,
		followRepo: followRepo,
		producer:   producer,
		logger:     logger,
	}
}

// Follow is idempotent: following someone twice leaves one edge.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return ErrSelfFollow
	}

	following, err := s.userRepo.GetByID(ctx, followingID)
	if err != nil {
		return fmt.Errorf("failed to get following user: %w", err)
	}
	if following == nil {
		return ErrUserNotFound
	}

	inserted, err := s.followRepo.Create(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventFollowCreated, followerID,
		map[string]uint{"following_id": followingID}))

	s.logger.WithFields(logrus.Fields{
		"follower_id":  followerID,
		"following_id": followingID,
	}).Info("User followed successfully")
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	removed, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventFollowDeleted, followerID,
		map[string]uint{"following_id": followingID}))

	s.logger.WithFields(logrus.Fields{
		"follower_id":  followerID,
		"following_id": followingID,
	}).Info("User unfollowed successfully")
	return nil
}

func (s *FollowService) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowers(ctx, userID)
}

func (s *FollowService) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowing(ctx, userID)
}
