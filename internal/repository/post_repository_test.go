package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisocial/internal/models"
)

func TestPostRepository_ToggleLike_Mock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	t.Run("Лайк ставится, если его не было", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM likes WHERE user_id = ? AND post_id = ?`).
			WithArgs(int64(1), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO likes (user_id, post_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`).
			WithArgs(int64(1), int64(2), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery(likeCountQuery).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectCommit()

		liked, count, err := repo.ToggleLike(ctx, 1, 2)

		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 3, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Параллельная вставка выигрывает гонку", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM likes WHERE user_id = ? AND post_id = ?`).
			WithArgs(int64(1), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO likes (user_id, post_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`).
			WithArgs(int64(1), int64(2), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM likes WHERE user_id = ? AND post_id = ?`).
			WithArgs(int64(1), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(likeCountQuery).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectCommit()

		liked, count, err := repo.ToggleLike(ctx, 1, 2)

		require.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, 0, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ошибка откатывает транзакцию", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM likes WHERE user_id = ? AND post_id = ?`).
			WithArgs(int64(1), int64(2)).
			WillReturnError(errors.New("database is locked"))
		mock.ExpectRollback()

		_, _, err := repo.ToggleLike(ctx, 1, 2)

		require.Error(t, err)
		assert.True(t, models.IsStorageError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostRepository_SQLite(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	alice := createUser(t, repo, "alice")
	bob := createUser(t, repo, "bob")
	carol := createUser(t, repo, "carol")

	t.Run("Создание поста", func(t *testing.T) {
		post := createPost(t, repo, alice.ID, "hello")
		assert.Equal(t, "alice", post.Username)
		assert.Equal(t, alice.ID, post.UserID)
		assert.Zero(t, post.LikeCount)
		assert.False(t, post.Liked)
		assert.Nil(t, post.ImageURL)
	})

	t.Run("Пост несуществующего пользователя", func(t *testing.T) {
		_, err := repo.Posts.Create(ctx, 9999, "ghost")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("Состав ленты", func(t *testing.T) {
		bobPost := createPost(t, repo, bob.ID, "from bob")
		createPost(t, repo, carol.ID, "from carol")

		feed, err := repo.Posts.Feed(ctx, alice.ID, FeedLimit)
		require.NoError(t, err)
		require.Len(t, feed, 1)

		_, err = repo.Follows.Toggle(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		liked, count, err := repo.Posts.ToggleLike(ctx, alice.ID, bobPost.ID)
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, count)

		feed, err = repo.Posts.Feed(ctx, alice.ID, FeedLimit)
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, bobPost.ID, feed[0].ID)
		assert.True(t, feed[0].Liked)
		assert.Equal(t, 1, feed[0].LikeCount)
		assert.Equal(t, "bob", feed[0].Username)
		for _, p := range feed {
			assert.NotEqual(t, carol.ID, p.UserID)
		}

		// bob does not follow alice, so his feed only has his own post
		feed, err = repo.Posts.Feed(ctx, bob.ID, FeedLimit)
		require.NoError(t, err)
		require.Len(t, feed, 1)
		assert.False(t, feed[0].Liked)
		assert.Equal(t, 1, feed[0].LikeCount)
	})

	t.Run("Лента ограничена и упорядочена", func(t *testing.T) {
		dave := createUser(t, repo, "dave")
		for i := 0; i < FeedLimit+5; i++ {
			createPost(t, repo, dave.ID, "post")
		}

		feed, err := repo.Posts.Feed(ctx, dave.ID, FeedLimit)
		require.NoError(t, err)
		require.Len(t, feed, FeedLimit)
		for i := 1; i < len(feed); i++ {
			assert.False(t, feed[i].CreatedAt.After(feed[i-1].CreatedAt))
			if feed[i].CreatedAt.Equal(feed[i-1].CreatedAt) {
				assert.Less(t, feed[i].ID, feed[i-1].ID)
			}
		}
	})

	t.Run("Редактирование и удаление только автором", func(t *testing.T) {
		post := createPost(t, repo, alice.ID, "draft")

		assert.ErrorIs(t, repo.Posts.Update(ctx, post.ID, bob.ID, "hacked"), models.ErrForbidden)
		assert.ErrorIs(t, repo.Posts.Delete(ctx, post.ID, bob.ID), models.ErrForbidden)

		require.NoError(t, repo.Posts.Update(ctx, post.ID, alice.ID, "final"))
		updated, err := repo.Posts.GetByID(ctx, post.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "final", updated.Content)

		_, err = repo.Posts.ToggleBookmark(ctx, bob.ID, post.ID)
		require.NoError(t, err)
		require.NoError(t, repo.Posts.Delete(ctx, post.ID, alice.ID))

		_, err = repo.Posts.GetByID(ctx, post.ID, alice.ID)
		assert.ErrorIs(t, err, models.ErrPostNotFound)
		assert.ErrorIs(t, repo.Posts.Delete(ctx, post.ID, alice.ID), models.ErrPostNotFound)

		bookmarks, err := repo.Posts.Bookmarked(ctx, bob.ID, FeedLimit)
		require.NoError(t, err)
		for _, b := range bookmarks {
			assert.NotEqual(t, post.ID, b.ID)
		}

		_, _, err = repo.Posts.ToggleLike(ctx, bob.ID, post.ID)
		assert.ErrorIs(t, err, models.ErrPostNotFound)
	})

	t.Run("Закладки по времени добавления", func(t *testing.T) {
		p1 := createPost(t, repo, carol.ID, "first")
		p2 := createPost(t, repo, carol.ID, "second")

		for _, id := range []int64{p2.ID, p1.ID} {
			on, err := repo.Posts.ToggleBookmark(ctx, alice.ID, id)
			require.NoError(t, err)
			assert.True(t, on)
		}

		bookmarks, err := repo.Posts.Bookmarked(ctx, alice.ID, FeedLimit)
		require.NoError(t, err)
		require.Len(t, bookmarks, 2)
		assert.Equal(t, p1.ID, bookmarks[0].ID)
		assert.True(t, bookmarks[0].Bookmarked)

		off, err := repo.Posts.ToggleBookmark(ctx, alice.ID, p1.ID)
		require.NoError(t, err)
		assert.False(t, off)
	})
}

func TestToggle_Concurrent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	alice := createUser(t, repo, "alice")
	bob := createUser(t, repo, "bob")
	post := createPost(t, repo, alice.ID, "race")

	const workers = 16

	run := func(t *testing.T, toggle func() error) {
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- toggle()
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
	}

	t.Run("Лайки", func(t *testing.T) {
		run(t, func() error {
			_, _, err := repo.Posts.ToggleLike(ctx, bob.ID, post.ID)
			return err
		})

		count, err := repo.Posts.LikeCount(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "even number of toggles")
	})

	t.Run("Подписки", func(t *testing.T) {
		run(t, func() error {
			_, err := repo.Follows.Toggle(ctx, bob.ID, alice.ID)
			return err
		})

		following, err := repo.Follows.IsFollowing(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, following)
	})
}
