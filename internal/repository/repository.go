package repository

import (
	"context"

	"unisocial/internal/database"
	"unisocial/internal/models"
)

const (
	FeedLimit          = 50
	MaxSearchLimit     = 50
	MaxFollowListLimit = 100
)

type UserRepository interface {
	Create(ctx context.Context, username, passwordHash, fullName, bio string) (*models.User, error)
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetCredentialsByID(ctx context.Context, userID int64) (*models.Credentials, error)
	GetCredentialsByUsername(ctx context.Context, username string) (*models.Credentials, error)
	UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdatePasswordByUsername(ctx context.Context, username, passwordHash string) error
	GetAvatarURL(ctx context.Context, userID int64) (*string, error)
	SwapAvatarURL(ctx context.Context, userID int64, avatarURL *string) (*string, error)
	Delete(ctx context.Context, userID int64) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	Stats(ctx context.Context, userID int64) (*models.UserStats, error)
}

type PostRepository interface {
	Create(ctx context.Context, userID int64, content string) (*models.Post, error)
	GetByID(ctx context.Context, postID, viewerID int64) (*models.Post, error)
	Feed(ctx context.Context, viewerID int64, limit int) ([]models.Post, error)
	ByAuthor(ctx context.Context, authorID, viewerID int64, limit int) ([]models.Post, error)
	Bookmarked(ctx context.Context, userID int64, limit int) ([]models.Post, error)
	Update(ctx context.Context, postID, authorID int64, content string) error
	Delete(ctx context.Context, postID, authorID int64) error
	ToggleLike(ctx context.Context, userID, postID int64) (bool, int, error)
	ToggleBookmark(ctx context.Context, userID, postID int64) (bool, error)
	LikeCount(ctx context.Context, postID int64) (int, error)
}

type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followeeID int64) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error)
	Followers(ctx context.Context, userID int64, limit int) ([]models.User, error)
	Following(ctx context.Context, userID int64, limit int) ([]models.User, error)
}

type Repository struct {
	Users   UserRepository
	Posts   PostRepository
	Follows FollowRepository
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{
		Users:   NewUserRepository(db),
		Posts:   NewPostRepository(db),
		Follows: NewFollowRepository(db),
	}
}
