package service

import (
	"unisocial/internal/cache"
	"unisocial/internal/config"
	"unisocial/internal/password"
	"unisocial/internal/repository"
	"unisocial/internal/storage"
)

type Service struct {
	User UserService
	Post PostService
	Auth AuthService
}

func NewService(rep *repository.Repository, cfg *config.Config, storage storage.Storage, tokens cache.TokenStore) *Service {
	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	tokenManager := NewTokenManager(cfg.Auth.JWTSecretKey, cfg.Auth.SessionTokenTTL, tokens, rep.Users)

	return &Service{
		User: NewUserService(rep.Users, rep.Follows, storage, cfg.Avatar.MaxSize),
		Post: NewPostService(rep.Posts),
		Auth: NewAuthService(rep.Users, hasher, tokenManager),
	}
}
