package models

import (
	"time"
)

// User is the public profile. The password hash is never part of it.
type User struct {
	ID             int64     `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	FullName       string    `json:"fullName" db:"full_name"`
	Bio            string    `json:"bio" db:"bio"`
	AvatarURL      *string   `json:"avatarUrl" db:"avatar_url"`
	FollowingCount int       `json:"followingCount" db:"following_count"`
	FollowersCount int       `json:"followersCount" db:"followers_count"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// Credentials is only read by the auth service.
type Credentials struct {
	User
	PasswordHash string `db:"password_hash"`
}

type Post struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	Username   string    `json:"username" db:"username"`
	Content    string    `json:"content" db:"content"`
	ImageURL   *string   `json:"imageUrl" db:"image_url"`
	LikeCount  int       `json:"likeCount" db:"like_count"`
	Liked      bool      `json:"liked" db:"liked"`
	Bookmarked bool      `json:"bookmarked" db:"bookmarked"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type UserStats struct {
	Posts     int `json:"posts" db:"posts"`
	Followers int `json:"followers" db:"followers"`
	Following int `json:"following" db:"following"`
}

// ProfileUpdate carries a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	FullName  *string
	Bio       *string
	AvatarURL *string
}
