package repository

import (
	"context"
	"fmt"

	"github.com/social-media/social-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Add records the like and bumps posts.likes_count in one transaction. The
// counter only moves when the like row is new; the result reports that.
func (r *LikeRepository) Add(ctx context.Context, userID, postID uint) (bool, error) {
	var inserted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Like{UserID: userID, PostID: postID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		inserted = true
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to create like: %w", err)
	}
	return inserted, nil
}

// Remove deletes the like and decrements posts.likes_count, never below 0.
// Nothing is decremented when no like existed.
func (r *LikeRepository) Remove(ctx context.Context, userID, postID uint) (bool, error) {
	var removed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&models.Post{}).
			Where("id = ? AND likes_count > 0", postID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - ?", 1)).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}
	return removed, nil
}
