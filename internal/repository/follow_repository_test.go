package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisocial/internal/models"
)

func TestFollowRepository(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	alice := createUser(t, repo, "alice")
	bob := createUser(t, repo, "bob")
	carol := createUser(t, repo, "carol")

	t.Run("Нельзя подписаться на себя", func(t *testing.T) {
		_, err := repo.Follows.Toggle(ctx, alice.ID, alice.ID)
		assert.ErrorIs(t, err, models.ErrSelfFollow)
	})

	t.Run("Подписка на несуществующего пользователя", func(t *testing.T) {
		_, err := repo.Follows.Toggle(ctx, alice.ID, 9999)
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("Двойное переключение возвращает исходное состояние", func(t *testing.T) {
		on, err := repo.Follows.Toggle(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, on)

		following, err := repo.Follows.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, following)

		on, err = repo.Follows.Toggle(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, on)

		following, err = repo.Follows.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, following)
	})

	t.Run("Списки подписчиков и подписок", func(t *testing.T) {
		for _, id := range []int64{bob.ID, carol.ID} {
			_, err := repo.Follows.Toggle(ctx, id, alice.ID)
			require.NoError(t, err)
		}
		_, err := repo.Follows.Toggle(ctx, alice.ID, carol.ID)
		require.NoError(t, err)

		followers, err := repo.Follows.Followers(ctx, alice.ID, MaxFollowListLimit)
		require.NoError(t, err)
		require.Len(t, followers, 2)
		assert.Equal(t, carol.ID, followers[0].ID)
		assert.Equal(t, bob.ID, followers[1].ID)
		assert.Equal(t, 1, followers[0].FollowersCount)

		limited, err := repo.Follows.Followers(ctx, alice.ID, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		following, err := repo.Follows.Following(ctx, alice.ID, MaxFollowListLimit)
		require.NoError(t, err)
		require.Len(t, following, 1)
		assert.Equal(t, carol.ID, following[0].ID)
	})

	t.Run("Удаление пользователя удаляет рёбра", func(t *testing.T) {
		require.NoError(t, repo.Users.Delete(ctx, carol.ID))

		followers, err := repo.Follows.Followers(ctx, alice.ID, MaxFollowListLimit)
		require.NoError(t, err)
		require.Len(t, followers, 1)
		assert.Equal(t, bob.ID, followers[0].ID)

		following, err := repo.Follows.Following(ctx, alice.ID, MaxFollowListLimit)
		require.NoError(t, err)
		assert.Empty(t, following)
	})
}
