package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"unisocial/internal/models"
	"unisocial/internal/repository"
	"unisocial/internal/storage"
)

const (
	AvatarURLPrefix    = "/avatars/"
	DefaultSearchLimit = 20
	MaxAvatarSize      = 5 * 1024 * 1024
)

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UserService interface {
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	ToggleFollow(ctx context.Context, followerID, followeeID int64) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64, limit int) ([]models.User, error)
	GetFollowing(ctx context.Context, userID int64, limit int) ([]models.User, error)
	GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error)
	GetAvatarURL(ctx context.Context, userID int64) (*string, error)
	UpdateAvatar(ctx context.Context, userID int64, data, contentType string) (string, error)
	DeleteAvatar(ctx context.Context, userID int64) error
	DiscardAvatar(ctx context.Context, userID int64, avatarURL *string)
}

type userService struct {
	userRepo      repository.UserRepository
	followRepo    repository.FollowRepository
	storage       storage.Storage
	maxAvatarSize int64
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, storage storage.Storage, maxAvatarSize int64) UserService {
	if maxAvatarSize <= 0 {
		maxAvatarSize = MaxAvatarSize
	}
	return &userService{
		userRepo:      userRepo,
		followRepo:    followRepo,
		storage:       storage,
		maxAvatarSize: maxAvatarSize,
	}
}

func (s *userService) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) error {
	if update.FullName != nil {
		fullName := strings.TrimSpace(*update.FullName)
		update.FullName = &fullName
	}
	if update.Bio != nil {
		bio := strings.TrimSpace(*update.Bio)
		update.Bio = &bio
	}

	return s.userRepo.UpdateProfile(ctx, userID, update)
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

func (s *userService) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}

	return s.userRepo.Search(ctx, query, clampLimit(limit, DefaultSearchLimit, repository.MaxSearchLimit))
}

func (s *userService) ToggleFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if followerID == followeeID {
		return false, models.ErrSelfFollow
	}
	return s.followRepo.Toggle(ctx, followerID, followeeID)
}

func (s *userService) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return s.followRepo.IsFollowing(ctx, followerID, followeeID)
}

func (s *userService) GetFollowers(ctx context.Context, userID int64, limit int) ([]models.User, error) {
	return s.followRepo.Followers(ctx, userID, clampLimit(limit, repository.MaxFollowListLimit, repository.MaxFollowListLimit))
}

func (s *userService) GetFollowing(ctx context.Context, userID int64, limit int) ([]models.User, error) {
	return s.followRepo.Following(ctx, userID, clampLimit(limit, repository.MaxFollowListLimit, repository.MaxFollowListLimit))
}

func (s *userService) GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	return s.userRepo.Stats(ctx, userID)
}

func (s *userService) GetAvatarURL(ctx context.Context, userID int64) (*string, error) {
	return s.userRepo.GetAvatarURL(ctx, userID)
}

func avatarExtension(contentType string) string {
	if ext, ok := avatarExtensions[strings.ToLower(strings.TrimSpace(contentType))]; ok {
		return ext
	}
	return ".jpg"
}

func avatarFilePrefix(userID int64) string {
	return fmt.Sprintf("avatar_%d_", userID)
}

// managedAvatarName returns the file name behind a URL issued to userID, or "".
// Any other URL, including another user's avatar, is not ours to delete.
func managedAvatarName(userID int64, avatarURL *string) string {
	if avatarURL == nil || !strings.HasPrefix(*avatarURL, AvatarURLPrefix) {
		return ""
	}

	name := strings.TrimPrefix(*avatarURL, AvatarURLPrefix)
	if !strings.HasPrefix(name, avatarFilePrefix(userID)) || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}

func (s *userService) UpdateAvatar(ctx context.Context, userID int64, data, contentType string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrInvalidAvatar, err)
	}
	if len(decoded) == 0 {
		return "", models.ErrInvalidAvatar
	}
	if int64(len(decoded)) > s.maxAvatarSize {
		log.Warn().Int64("user_id", userID).Int("size", len(decoded)).Msg("Аватар слишком большой")
		return "", models.ErrAvatarTooLarge
	}

	name := avatarFilePrefix(userID) + uuid.New().String() + avatarExtension(contentType)
	if err := s.storage.SaveAvatar(ctx, name, decoded, contentType); err != nil {
		return "", models.NewStorageError("ошибка сохранения аватара", err)
	}

	avatarURL := AvatarURLPrefix + name
	previous, err := s.userRepo.SwapAvatarURL(ctx, userID, &avatarURL)
	if err != nil {
		if delErr := s.storage.DeleteAvatar(ctx, name); delErr != nil {
			log.Warn().Err(delErr).Str("file", name).Msg("Не удалось удалить файл аватара")
		}
		return "", err
	}

	if managedAvatarName(userID, previous) != name {
		s.DiscardAvatar(ctx, userID, previous)
	}

	log.Info().Int64("user_id", userID).Str("avatar_url", avatarURL).Msg("Аватар обновлён")
	return avatarURL, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, userID int64) error {
	previous, err := s.userRepo.SwapAvatarURL(ctx, userID, nil)
	if err != nil {
		return err
	}

	s.DiscardAvatar(ctx, userID, previous)
	return nil
}

// DiscardAvatar best-effort removes the file behind an avatar URL issued to userID.
func (s *userService) DiscardAvatar(ctx context.Context, userID int64, avatarURL *string) {
	name := managedAvatarName(userID, avatarURL)
	if name == "" {
		return
	}

	if err := s.storage.DeleteAvatar(ctx, name); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Не удалось удалить файл аватара")
	}
}
