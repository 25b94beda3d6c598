package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/social-media/social-backend/internal/models"
	"gorm.io/gorm"
)

const postViewColumns = "p.id, p.user_id, p.content, p.image_url, p.likes_count, p.created_at, " +
	"u.username, u.full_name, u.profile_picture"

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

func (r *PostRepository) views(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts AS p").
		Select(postViewColumns).
		Joins("JOIN users u ON p.user_id = u.id")
}

// ListRecent returns the newest posts across all authors.
func (r *PostRepository) ListRecent(ctx context.Context, limit int) ([]models.PostView, error) {
	posts := []models.PostView{}
	if err := r.views(ctx).
		Order("p.created_at DESC, p.id DESC").
		Limit(limit).
		Scan(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) ListByUserID(ctx context.Context, userID uint) ([]models.PostView, error) {
	posts := []models.PostView{}
	if err := r.views(ctx).
		Where("p.user_id = ?", userID).
		Order("p.created_at DESC, p.id DESC").
		Scan(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts by user: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Update(ctx context.Context, id uint, content string, imageURL *string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":   content,
			"image_url": imageURL,
		}).Error; err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// Delete removes the post together with its likes and comments.
func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}
