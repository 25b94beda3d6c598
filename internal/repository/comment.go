package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/social-media/social-backend/internal/models"
	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// ListByPostID returns the thread in chronological order.
func (r *CommentRepository) ListByPostID(ctx context.Context, postID uint) ([]models.CommentView, error) {
	comments := []models.CommentView{}
	if err := r.db.WithContext(ctx).
		Table("comments AS c").
		Select("c.id, c.post_id, c.user_id, c.content, c.created_at, u.username, u.full_name, u.profile_picture").
		Joins("JOIN users u ON c.user_id = u.id").
		Where("c.post_id = ?", postID).
		Order("c.created_at ASC, c.id ASC").
		Scan(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to get comments by post: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Update("content", content).Error; err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.Comment{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
