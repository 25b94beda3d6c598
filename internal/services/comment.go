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

type CommentService struct {
	postRepo    *repository.PostRepository
	commentRepo *repository.CommentRepository
	producer    queue.Publisher
	logger      *logger.Logger
}

func NewCommentService(postRepo *repository.PostRepository, commentRepo *repository.CommentRepository, producer queue.Publisher, logger *logger.Logger) *CommentService {
	return &CommentService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		producer:    producer,
		logger:      logger,
	}
}

type CreateCommentRequest struct {
	PostID  ID     `json:"post_id"`
	Content string `json:"content"`
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	return s.commentRepo.ListByPostID(ctx, postID)
}

func (s *CommentService) CreateComment(ctx context.Context, userID uint, req *CreateCommentRequest) (uint, error) {
	if req.PostID == 0 || strings.TrimSpace(req.Content) == "" {
		return 0, ErrMissingFields
	}

	postID := uint(req.PostID)
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return 0, ErrPostNotFound
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: req.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return 0, err
	}

	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventCommentCreated, userID,
		map[string]uint{"comment_id": comment.ID, "post_id": postID}))

	s.logger.WithFields(logrus.Fields{
		"comment_id": comment.ID,
		"user_id":    userID,
		"post_id":    postID,
	}).Info("Comment created successfully")
	return comment.ID, nil
}

func (s *CommentService) ownedComment(ctx context.Context, actorID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	if !isOwner(comment, actorID) {
		return nil, ErrForbidden
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, actorID, commentID uint, req *UpdateCommentRequest) error {
	comment, err := s.ownedComment(ctx, actorID, commentID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Content) == "" {
		return ErrContentRequired
	}

	if err := s.commentRepo.UpdateContent(ctx, commentID, req.Content); err != nil {
		return err
	}

	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventCommentUpdated, actorID,
		map[string]uint{"comment_id": commentID, "post_id": comment.PostID}))

	s.logger.WithFields(logrus.Fields{
		"comment_id": commentID,
		"user_id":    actorID,
	}).Info("Comment updated successfully")
	return nil
}

func (s *CommentService) DeleteComment(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.ownedComment(ctx, actorID, commentID)
	if err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}

	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventCommentDeleted, actorID,
		map[string]uint{"comment_id": commentID, "post_id": comment.PostID}))

	s.logger.WithFields(logrus.Fields{
		"comment_id": commentID,
		"user_id":    actorID,
	}).Info("Comment deleted successfully")
	return nil
}
