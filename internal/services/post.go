package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/social-media/social-backend/internal/models"
	"github.com/social-media/social-backend/internal/repository"
	"github.com/social-media/social-backend/pkg/logger"
	"github.com/social-media/social-backend/pkg/queue"
)

// DefaultFeedLimit caps the public feed.
const DefaultFeedLimit = 50

type PostService struct {
	postRepo  *repository.PostRepository
	feedCache FeedCache
	producer  queue.Publisher
	feedLimit int
	logger    *logger.Logger
}

func NewPostService(postRepo *repository.PostRepository, feedCache FeedCache, producer queue.Publisher, feedLimit int, logger *logger.Logger) *PostService {
	if feedLimit <= 0 {
		feedLimit = DefaultFeedLimit
	}
	return &PostService{
		postRepo:  postRepo,
		feedCache: feedCache,
		producer:  producer,
		feedLimit: feedLimit,
		logger:    logger,
	}
}

type CreatePostRequest struct {
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url"`
}

type UpdatePostRequest struct {
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url"`
}

// ListFeed returns the newest posts of all users.
func (s *PostService) ListFeed(ctx context.Context) ([]models.PostView, error) {
	posts, version, ok := s.feedCache.Get(ctx)
	if ok {
		return posts, nil
	}

	posts, err := s.postRepo.ListRecent(ctx, s.feedLimit)
	if err != nil {
		return nil, err
	}

	s.feedCache.Set(ctx, version, posts)
	return posts, nil
}

func (s *PostService) ListByUser(ctx context.Context, userID uint) ([]models.PostView, error) {
	return s.postRepo.ListByUserID(ctx, userID)
}

func (s *PostService) CreatePost(ctx context.Context, userID uint, req *CreatePostRequest) (uint, error) {
	if strings.TrimSpace(req.Content) == "" {
		return 0, ErrContentRequired
	}

	post := &models.Post{
		UserID:   userID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return 0, err
	}

	s.feedCache.Invalidate(ctx)
	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventPostCreated, userID,
		map[string]uint{"post_id": post.ID}))

	s.logger.WithFields(logrus.Fields{
		"post_id": post.ID,
		"user_id": userID,
	}).Info("Post created successfully")
	return post.ID, nil
}

// ownedPost loads the post and checks that actorID may change it.
func (s *PostService) ownedPost(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if !isOwner(post, actorID) {
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, actorID, postID uint, req *UpdatePostRequest) error {
	if _, err := s.ownedPost(ctx, actorID, postID); err != nil {
		return err
	}
	if strings.TrimSpace(req.Content) == "" {
		return ErrContentRequired
	}

	if err := s.postRepo.Update(ctx, postID, req.Content, req.ImageURL); err != nil {
		return err
	}

	s.feedCache.Invalidate(ctx)
	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventPostUpdated, actorID,
		map[string]uint{"post_id": postID}))

	s.logger.WithFields(logrus.Fields{
		"post_id": postID,
		"user_id": actorID,
	}).Info("Post updated successfully")
	return nil
}

func (s *PostService) DeletePost(ctx context.Context, actorID, postID uint) error {
	if _, err := s.ownedPost(ctx, actorID, postID); err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	s.feedCache.Invalidate(ctx)
	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventPostDeleted, actorID,
		map[string]uint{"post_id": postID}))

	s.logger.WithFields(logrus.Fields{
		"post_id": postID,
		"user_id": actorID,
	}).Info("Post deleted successfully")
	return nil
}
