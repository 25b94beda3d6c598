package models

import (
	"time"
)

type Post struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	ImageURL   *string   `json:"image_url" gorm:"size:500"`
	LikesCount int64     `json:"likes_count" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time `json:"-"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (p *Post) OwnerID() uint {
	return p.UserID
}

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	User User `json:"-" gorm:"foreignKey:UserID"`
	Post Post `json:"-" gorm:"foreignKey:PostID"`
}

func (c *Comment) OwnerID() uint {
	return c.UserID
}

// Like is unique per (post, user).
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;uniqueIndex:idx_like_post_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_like_post_user"`
	CreatedAt time.Time `json:"created_at"`

	Post Post `json:"-" gorm:"foreignKey:PostID"`
}

// PostView is a post row joined with its author summary.
type PostView struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	Content        string    `json:"content"`
	ImageURL       *string   `json:"image_url"`
	LikesCount     int64     `json:"likes_count"`
	CreatedAt      time.Time `json:"created_at"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	ProfilePicture *string   `json:"profile_picture"`
}

// CommentView is a comment row joined with its author summary.
type CommentView struct {
	ID             uint      `json:"id"`
	PostID         uint      `json:"post_id"`
	UserID         uint      `json:"user_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	ProfilePicture *string   `json:"profile_picture"`
}

func (Post) TableName() string {
	return "posts"
}

func (Like) TableName() string {
	return "likes"
}

func (Comment) TableName() string {
	return "comments"
}
