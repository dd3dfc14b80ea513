package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"unisocial/internal/config"
	"unisocial/internal/database"
	"unisocial/internal/models"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &database.DB{DB: sqlx.NewDb(db, "sqlmock"), Dialect: database.DialectSQLite}, mock
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.ConnectDB(context.Background(), config.DB{
		URL:             filepath.Join(t.TempDir(), "repo.db"),
		MaxOpenConns:    8,
		MaxIdleConns:    8,
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.CloseDB() })

	return NewRepository(db)
}

func createUser(t *testing.T, repo *Repository, username string) *models.User {
	t.Helper()

	user, err := repo.Users.Create(context.Background(), username, "hash-"+username, username, "")
	require.NoError(t, err)
	return user
}

func createPost(t *testing.T, repo *Repository, userID int64, content string) *models.Post {
	t.Helper()

	post, err := repo.Posts.Create(context.Background(), userID, content)
	require.NoError(t, err)
	return post
}
