package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugaemi/mergeboss-server/internal/account"
)

// Behavior shared by every Store implementation.

func testAccountStore(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("create and find by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		acc := account.NewPlayerAccount("user-001", "테스트유저")
		require.NoError(t, s.Create(ctx, acc))

		found, err := s.FindByID(ctx, acc.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, acc.ID, found.ID)
		assert.Equal(t, "테스트유저", found.Nickname)
		assert.False(t, found.IsGuest)
		require.NotNil(t, found.UserID)
		assert.Equal(t, "user-001", *found.UserID)
	})

	t.Run("find by user id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		acc := account.NewPlayerAccount("user-002", "유저2")
		require.NoError(t, s.Create(ctx, acc))

		found, err := s.FindByUserID(ctx, "user-002")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, acc.ID, found.ID)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		found, err := s.FindByUserID(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, found)

		found, err = s.FindByID(ctx, "nonexistent-id")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("guest", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		acc := account.NewGuestAccount("게스트유저")
		require.NoError(t, s.Create(ctx, acc))

		found, err := s.FindByID(ctx, acc.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.True(t, found.IsGuest)
		assert.Nil(t, found.UserID)
	})

	t.Run("update nickname and login", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		acc := account.NewGuestAccount("이전닉네임")
		require.NoError(t, s.Create(ctx, acc))
		require.NoError(t, s.UpdateNickname(ctx, acc.ID, "새닉네임"))
		require.NoError(t, s.UpdateLastLogin(ctx, acc.ID))

		found, err := s.FindByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "새닉네임", found.Nickname)
		assert.False(t, found.LastLoginAt.Before(acc.CreatedAt))
	})
}

func testRecordStore(t *testing.T, newStore func(t *testing.T) Store) {
	const game = "craft-big-boss"

	t.Run("missing record", func(t *testing.T) {
		s := newStore(t)
		rec, err := s.Find(context.Background(), game, "nobody", FieldMain)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, rec)
	})

	t.Run("upsert keeps best score", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Upsert(ctx, Record{GameID: game, FieldID: FieldMain, UserID: "u1", Nickname: "a", Score: 300}))
		require.NoError(t, s.Upsert(ctx, Record{GameID: game, FieldID: FieldMain, UserID: "u1", Nickname: "b", Score: 100}))

		rec, err := s.Find(ctx, game, "u1", FieldMain)
		require.NoError(t, err)
		assert.Equal(t, int64(300), rec.Score)
		assert.Equal(t, "b", rec.Nickname)
		assert.Equal(t, 1, rec.Rank)
		assert.False(t, rec.CreatedAt.IsZero())
	})

	t.Run("rank and top", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		scores := map[string]int64{"u1": 500, "u2": 900, "u3": 500, "u4": 100}
		for user, score := range scores {
			require.NoError(t, s.Upsert(ctx, Record{GameID: game, FieldID: FieldMain, UserID: user, Score: score}))
		}
		require.NoError(t, s.Upsert(ctx, Record{GameID: game, FieldID: FieldClearTime, UserID: "u4", Score: 1}))
		require.NoError(t, s.Upsert(ctx, Record{GameID: "other", FieldID: FieldMain, UserID: "u5", Score: 99999}))

		rec, err := s.Find(ctx, game, "u3", FieldMain)
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Rank)

		rec, err = s.Find(ctx, game, "u4", FieldMain)
		require.NoError(t, err)
		assert.Equal(t, 4, rec.Rank)

		top, err := s.Top(ctx, game, FieldMain, 3)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, "u2", top[0].UserID)
		assert.Equal(t, 1, top[0].Rank)
		assert.Equal(t, int64(500), top[1].Score)
		assert.Equal(t, 2, top[1].Rank)
		assert.Equal(t, 2, top[2].Rank)

		clears, err := s.Top(ctx, game, FieldClearTime, 10)
		require.NoError(t, err)
		require.Len(t, clears, 1)
		assert.Equal(t, "u4", clears[0].UserID)
	})
}
