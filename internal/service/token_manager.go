package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"unisocial/internal/cache"
	"unisocial/internal/models"
	"unisocial/internal/repository"
)

// TokenManager issues and checks session resume tokens. With an empty secret
// tokens are disabled: Issue returns "" and Resume always fails.
type TokenManager struct {
	secret   []byte
	ttl      time.Duration
	store    cache.TokenStore
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, store cache.TokenStore, userRepo repository.UserRepository) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		ttl:      ttl,
		store:    store,
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (m *TokenManager) Enabled() bool {
	return m != nil && len(m.secret) > 0
}

func (m *TokenManager) Issue(userID int64) (string, error) {
	if !m.Enabled() {
		return "", nil
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return tokenString, nil
}

func (m *TokenManager) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	if !m.Enabled() {
		return nil, models.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}

	if claims.ID == "" {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

// Resume returns the user a valid, unrevoked token belongs to.
func (m *TokenManager) Resume(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := m.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, models.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	user, err := m.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

// Revoke invalidates the token until its own expiry. Invalid tokens are ignored.
func (m *TokenManager) Revoke(ctx context.Context, tokenString string) error {
	if tokenString == "" {
		return nil
	}

	claims, err := m.parse(tokenString)
	if err != nil {
		return nil
	}

	return m.store.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
