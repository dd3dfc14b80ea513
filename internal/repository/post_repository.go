package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"unisocial/internal/database"
	"unisocial/internal/models"
)

// postColumns expects the viewer id bound twice, for liked and bookmarked.
const postColumns = `p.id, p.user_id, u.username, p.content, p.image_url, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count,
	EXISTS(SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?) AS liked,
	EXISTS(SELECT 1 FROM bookmarks b WHERE b.post_id = p.id AND b.user_id = ?) AS bookmarked`

const (
	insertPostQuery = `INSERT INTO posts (user_id, content, created_at, updated_at) VALUES (?, ?, ?, ?) RETURNING id`
	postByIDQuery   = `SELECT ` + postColumns + ` FROM posts p JOIN users u ON u.id = p.user_id WHERE p.id = ?`
	feedQuery       = `SELECT ` + postColumns + ` FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = ? OR p.user_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)
		ORDER BY p.created_at DESC, p.id DESC LIMIT ?`
	postsByAuthorQuery = `SELECT ` + postColumns + ` FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = ?
		ORDER BY p.created_at DESC, p.id DESC LIMIT ?`
	bookmarkedPostsQuery = `SELECT ` + postColumns + ` FROM bookmarks bm
		JOIN posts p ON p.id = bm.post_id
		JOIN users u ON u.id = p.user_id
		WHERE bm.user_id = ?
		ORDER BY bm.created_at DESC, bm.id DESC LIMIT ?`
	postAuthorQuery = `SELECT user_id FROM posts WHERE id = ?`
	updatePostQuery = `UPDATE posts SET content = ?, updated_at = ? WHERE id = ?`
	deletePostQuery = `DELETE FROM posts WHERE id = ?`
	likeCountQuery  = `SELECT COUNT(*) FROM likes WHERE post_id = ?`
)

type PostRepositoryImpl struct {
	db *database.DB
}

func NewPostRepository(db *database.DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{db: db}
}

func (r *PostRepositoryImpl) Create(ctx context.Context, userID int64, content string) (*models.Post, error) {
	now := time.Now().UTC()

	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(insertPostQuery), userID, content, now, now)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, models.ErrUserNotFound
		}
		return nil, models.NewStorageError("ошибка при создании поста", err)
	}

	return r.GetByID(ctx, id, userID)
}

func (r *PostRepositoryImpl) GetByID(ctx context.Context, postID, viewerID int64) (*models.Post, error) {
	var post models.Post

	err := r.db.GetContext(ctx, &post, r.db.Rebind(postByIDQuery), viewerID, viewerID, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPostNotFound
		}
		return nil, models.NewStorageError("ошибка при получении поста", err)
	}

	return &post, nil
}

// Feed returns the viewer's own posts and posts of everyone they follow, newest first.
func (r *PostRepositoryImpl) Feed(ctx context.Context, viewerID int64, limit int) ([]models.Post, error) {
	return r.selectPosts(ctx, "ошибка при получении ленты", feedQuery, viewerID, viewerID, viewerID, viewerID, limit)
}

func (r *PostRepositoryImpl) ByAuthor(ctx context.Context, authorID, viewerID int64, limit int) ([]models.Post, error) {
	return r.selectPosts(ctx, "ошибка при получении постов пользователя", postsByAuthorQuery, viewerID, viewerID, authorID, limit)
}

func (r *PostRepositoryImpl) Bookmarked(ctx context.Context, userID int64, limit int) ([]models.Post, error) {
	return r.selectPosts(ctx, "ошибка при получении закладок", bookmarkedPostsQuery, userID, userID, userID, limit)
}

func (r *PostRepositoryImpl) selectPosts(ctx context.Context, op, query string, args ...interface{}) ([]models.Post, error) {
	posts := []models.Post{}

	err := r.db.SelectContext(ctx, &posts, r.db.Rebind(query), args...)
	if err != nil {
		return nil, models.NewStorageError(op, err)
	}

	return posts, nil
}

func (r *PostRepositoryImpl) Update(ctx context.Context, postID, authorID int64, content string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkPostAuthor(ctx, tx, postID, authorID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, tx.Rebind(updatePostQuery), content, time.Now().UTC(), postID)
		if err != nil {
			return models.NewStorageError("ошибка при обновлении поста", err)
		}
		return nil
	})
}

func (r *PostRepositoryImpl) Delete(ctx context.Context, postID, authorID int64) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkPostAuthor(ctx, tx, postID, authorID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(deletePostQuery), postID); err != nil {
			return models.NewStorageError("ошибка при удалении поста", err)
		}
		return nil
	})
}

func checkPostAuthor(ctx context.Context, tx *sqlx.Tx, postID, authorID int64) error {
	var owner int64

	err := tx.GetContext(ctx, &owner, tx.Rebind(postAuthorQuery), postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrPostNotFound
		}
		return models.NewStorageError("ошибка при получении автора поста", err)
	}

	if owner != authorID {
		return models.ErrForbidden
	}
	return nil
}

// ToggleLike flips the like and returns the new state with the post's like count
// read in the same transaction.
func (r *PostRepositoryImpl) ToggleLike(ctx context.Context, userID, postID int64) (bool, int, error) {
	var (
		liked bool
		count int
	)

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if liked, err = likeEdge.toggle(ctx, tx, userID, postID); err != nil {
			return postEdgeError("ошибка при изменении лайка", err)
		}

		if err := tx.GetContext(ctx, &count, tx.Rebind(likeCountQuery), postID); err != nil {
			return models.NewStorageError("ошибка при подсчёте лайков", err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	return liked, count, nil
}

func (r *PostRepositoryImpl) ToggleBookmark(ctx context.Context, userID, postID int64) (bool, error) {
	var bookmarked bool

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if bookmarked, err = bookmarkEdge.toggle(ctx, tx, userID, postID); err != nil {
			return postEdgeError("ошибка при изменении закладки", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return bookmarked, nil
}

func (r *PostRepositoryImpl) LikeCount(ctx context.Context, postID int64) (int, error) {
	var count int

	if err := r.db.GetContext(ctx, &count, r.db.Rebind(likeCountQuery), postID); err != nil {
		return 0, models.NewStorageError("ошибка при подсчёте лайков", err)
	}

	return count, nil
}

func postEdgeError(op string, err error) error {
	if database.IsForeignKeyViolation(err) {
		return models.ErrPostNotFound
	}
	return models.NewStorageError(op, err)
}
