package service

import (
	"context"
	"errors"
	"regexp"

	"github.com/rs/zerolog/log"

	"unisocial/internal/models"
	"unisocial/internal/password"
	"unisocial/internal/repository"
)

const DefaultBio = "New user on UniSocial!"

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	CreateUser(ctx context.Context, username, password string) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, username, newPassword string) error
	DeleteAccount(ctx context.Context, userID int64, password string) (*string, error)
	Tokens() *TokenManager
}

type authService struct {
	userRepo repository.UserRepository
	hasher   *password.Hasher
	tokens   *TokenManager
}

func NewAuthService(userRepo repository.UserRepository, hasher *password.Hasher, tokens *TokenManager) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return models.ErrInvalidUsername
	}
	return nil
}

func (s *authService) Tokens() *TokenManager {
	return s.tokens
}

// Authenticate does not tell a missing user apart from a wrong password.
func (s *authService) Authenticate(ctx context.Context, username, plaintext string) (*models.User, error) {
	creds, err := s.userRepo.GetCredentialsByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(plaintext, creds.PasswordHash) {
		log.Debug().Str("username", username).Msg("Неверный пароль")
		return nil, models.ErrInvalidCredentials
	}

	user := creds.User
	return &user, nil
}

func (s *authService) CreateUser(ctx context.Context, username, plaintext string) (*models.User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, username, hashed, username, DefaultBio)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Str("username", username).Msg("Пользователь зарегистрирован")
	return user, nil
}

func (s *authService) verifyCurrent(ctx context.Context, userID int64, plaintext string) (*models.Credentials, error) {
	creds, err := s.userRepo.GetCredentialsByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(plaintext, creds.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}
	return creds, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if err := password.Validate(newPassword); err != nil {
		return err
	}

	if _, err := s.verifyCurrent(ctx, userID, oldPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return err
	}

	log.Info().Int64("user_id", userID).Msg("Пароль изменён")
	return nil
}

// ResetPassword is the administrative path: no current password is required.
func (s *authService) ResetPassword(ctx context.Context, username, newPassword string) error {
	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePasswordByUsername(ctx, username, hashed); err != nil {
		return err
	}

	log.Info().Str("username", username).Msg("Пароль сброшен администратором")
	return nil
}

// DeleteAccount removes the user and everything that references it.
// It returns the avatar URL the user had so the caller can drop the file.
func (s *authService) DeleteAccount(ctx context.Context, userID int64, plaintext string) (*string, error) {
	creds, err := s.verifyCurrent(ctx, userID, plaintext)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", userID).Msg("Аккаунт удалён")
	return creds.AvatarURL, nil
}
