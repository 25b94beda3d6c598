package models

import (
	"time"
)

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email          string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password       string    `json:"-" gorm:"not null"`
	FullName       string    `json:"full_name" gorm:"size:100"`
	Bio            *string   `json:"bio" gorm:"type:text"`
	ProfilePicture *string   `json:"profile_picture" gorm:"size:500"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

func (u *User) OwnerID() uint {
	return u.ID
}

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"not null;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"not null;uniqueIndex:idx_follower_following;index"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is the public view of a user, returned by GET /users/:userId.
type Profile struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Bio            *string   `json:"bio"`
	ProfilePicture *string   `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
}

func (User) TableName() string {
	return "users"
}

func (Follow) TableName() string {
	return "followers"
}
