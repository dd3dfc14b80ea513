package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"unisocial/cmd/app"
	"unisocial/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DB: config.DB{
			URL:             filepath.Join(dir, "admin.db"),
			MaxOpenConns:    4,
			MaxIdleConns:    4,
			ConnMaxLifetime: time.Hour,
		},
		Avatar: config.Avatar{UploadDir: filepath.Join(dir, "avatars"), MaxSize: 1024},
		Auth:   config.Auth{BcryptCost: bcrypt.MinCost, SessionTokenTTL: time.Hour},
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := app.Base(ctx, cfg)
	require.NoError(t, err)
	alice, err := a.Services.Auth.CreateUser(ctx, "alice", "pw12345")
	require.NoError(t, err)
	a.Close()

	t.Run("Сброс пароля", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(ctx, cfg, []string{"reset-password", "--username", "alice", "--password", "fresh123"}, &out))
		assert.Contains(t, out.String(), "alice")

		a, err := app.Base(ctx, cfg)
		require.NoError(t, err)
		defer a.Close()
		_, err = a.Services.Auth.Authenticate(ctx, "alice", "fresh123")
		assert.NoError(t, err)
	})

	t.Run("Статистика", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(ctx, cfg, []string{"stats", "--user-id", "1"}, &out))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Equal(t, float64(alice.ID), decoded["id"])
		assert.Equal(t, "alice", decoded["username"])
	})

	t.Run("Ошибки аргументов", func(t *testing.T) {
		var out bytes.Buffer
		assert.Error(t, run(ctx, cfg, nil, &out))
		assert.Error(t, run(ctx, cfg, []string{"unknown"}, &out))
		assert.Error(t, run(ctx, cfg, []string{"reset-password", "--username", "alice"}, &out))
		assert.Error(t, run(ctx, cfg, []string{"reset-password", "--username", "nobody", "--password", "fresh123"}, &out))
		assert.Error(t, run(ctx, cfg, []string{"stats"}, &out))
	})
}
