package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"unisocial/internal/database"
	"unisocial/internal/models"
)

const (
	followersQuery = `SELECT ` + userColumns + ` FROM follows e
		JOIN users u ON u.id = e.follower_id
		WHERE e.followee_id = ?
		ORDER BY e.created_at DESC, e.id DESC LIMIT ?`
	followingQuery = `SELECT ` + userColumns + ` FROM follows e
		JOIN users u ON u.id = e.followee_id
		WHERE e.follower_id = ?
		ORDER BY e.created_at DESC, e.id DESC LIMIT ?`
)

type followRepository struct {
	db *database.DB
}

func NewFollowRepository(db *database.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Toggle(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if followerID == followeeID {
		return false, models.ErrSelfFollow
	}

	var following bool
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		following, err = followEdge.toggle(ctx, tx, followerID, followeeID)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return models.ErrUserNotFound
			}
			return models.NewStorageError("ошибка при изменении подписки", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return following, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var exists bool

	err := r.db.GetContext(ctx, &exists, r.db.Rebind(followEdge.existsQuery()), followerID, followeeID)
	if err != nil {
		return false, models.NewStorageError("ошибка при проверке подписки", err)
	}

	return exists, nil
}

func (r *followRepository) Followers(ctx context.Context, userID int64, limit int) ([]models.User, error) {
	return r.selectUsers(ctx, "ошибка при получении подписчиков", followersQuery, userID, limit)
}

func (r *followRepository) Following(ctx context.Context, userID int64, limit int) ([]models.User, error) {
	return r.selectUsers(ctx, "ошибка при получении подписок", followingQuery, userID, limit)
}

func (r *followRepository) selectUsers(ctx context.Context, op, query string, userID int64, limit int) ([]models.User, error) {
	users := []models.User{}

	err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), userID, limit)
	if err != nil {
		return nil, models.NewStorageError(op, err)
	}

	return users, nil
}
