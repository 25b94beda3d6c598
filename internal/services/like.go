package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/social-media/social-backend/internal/repository"
	"github.com/social-media/social-backend/pkg/logger"
	"github.com/social-media/social-backend/pkg/queue"
)

type LikeService struct {
	postRepo  *repository.PostRepository
	likeRepo  *repository.LikeRepository
	feedCache FeedCache
	producer  queue.Publisher
	logger    *logger.Logger
}

func NewLikeService(postRepo *repository.PostRepository, likeRepo *repository.LikeRepository, feedCache FeedCache, producer queue.Publisher, logger *logger.Logger) *LikeService {
	return &LikeService{
		postRepo:  postRepo,
		likeRepo:  likeRepo,
		feedCache: feedCache,
		producer:  producer,
		logger:    logger,
	}
}

// LikePost is idempotent; liking twice counts once.
func (s *LikeService) LikePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return ErrPostNotFound
	}

	inserted, err := s.likeRepo.Add(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	s.feedCache.Invalidate(ctx)
	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventLikeCreated, userID,
		map[string]uint{"post_id": postID}))

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"post_id": postID,
	}).Info("Post liked successfully")
	return nil
}

// UnlikePost succeeds whether or not a like existed.
func (s *LikeService) UnlikePost(ctx context.Context, userID, postID uint) error {
	removed, err := s.likeRepo.Remove(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	s.feedCache.Invalidate(ctx)
	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventLikeDeleted, userID,
		map[string]uint{"post_id": postID}))

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"post_id": postID,
	}).Info("Post unliked successfully")
	return nil
}
