package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"unisocial/internal/cache"
	"unisocial/internal/config"
	"unisocial/internal/database"
	"unisocial/internal/repository"
	"unisocial/internal/storage"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveAvatar(ctx context.Context, name string, data []byte, contentType string) error {
	args := m.Called(ctx, name, data, contentType)
	return args.Error(0)
}

func (m *MockStorage) DeleteAvatar(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		DB: config.DB{
			URL:             filepath.Join(dir, "service.db"),
			MaxOpenConns:    8,
			MaxIdleConns:    8,
			ConnMaxLifetime: time.Hour,
		},
		Avatar: config.Avatar{
			UploadDir: filepath.Join(dir, "avatars"),
			MaxSize:   MaxAvatarSize,
		},
		Auth: config.Auth{
			BcryptCost:      bcrypt.MinCost,
			JWTSecretKey:    "test-secret",
			SessionTokenTTL: time.Hour,
		},
	}
}

type testEnv struct {
	svc     *Service
	repo    *repository.Repository
	cfg     *config.Config
	storage storage.Storage
}

func newTestEnv(t *testing.T, avatars storage.Storage) *testEnv {
	t.Helper()

	cfg := testConfig(t.TempDir())

	db, err := database.ConnectDB(context.Background(), cfg.DB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.CloseDB() })

	if avatars == nil {
		avatars, err = storage.NewLocalStorage(cfg.Avatar.UploadDir)
		require.NoError(t, err)
	}

	repo := repository.NewRepository(db)
	return &testEnv{
		svc:     NewService(repo, cfg, avatars, cache.NewMemoryTokenStore()),
		repo:    repo,
		cfg:     cfg,
		storage: avatars,
	}
}
