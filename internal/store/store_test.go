package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/tagbot/internal/sqltest"
	"github.com/m3rciful/tagbot/internal/tags"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(sqltest.Open(t))
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	err := s.WithinTx(ctx, func(r tags.Repository) error {
		_, err := r.FindUser(ctx, 100)
		assert.ErrorIs(t, err, tags.ErrNotFound)

		u, err := r.CreateUser(ctx, 100, "alice")
		require.NoError(t, err)
		assert.NotZero(t, u.ID)
		assert.Equal(t, "alice", u.Username.String)

		got, err := r.FindUser(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, u, got)

		anon, err := r.CreateUser(ctx, 101, "")
		require.NoError(t, err)
		assert.False(t, anon.Username.Valid)
		return nil
	})
	require.NoError(t, err)
}

func TestEnsureUserCreatesOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var first, second tags.User
	require.NoError(t, s.WithinTx(ctx, func(r tags.Repository) error {
		var err error
		first, err = tags.EnsureUser(ctx, r, 5, "bob")
		return err
	}))
	require.NoError(t, s.WithinTx(ctx, func(r tags.Repository) error {
		var err error
		second, err = tags.EnsureUser(ctx, r, 5, "renamed")
		return err
	}))
	assert.Equal(t, first, second)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Users)
}

func TestTagCRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.WithinTx(ctx, func(r tags.Repository) error {
		u, err := r.CreateUser(ctx, 1, "u1")
		require.NoError(t, err)
		other, err := r.CreateUser(ctx, 2, "u2")
		require.NoError(t, err)

		_, err = r.CreateTag(ctx, u, "hello", "World")
		require.NoError(t, err)
		_, err = r.CreateTag(ctx, u, "bye", "See you")
		require.NoError(t, err)
		// duplicate names are allowed
		_, err = r.CreateTag(ctx, u, "hello", "Again")
		require.NoError(t, err)
		_, err = r.CreateTag(ctx, other, "hello", "Other user")
		require.NoError(t, err)

		list, err := r.FindTagsByUser(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"hello", "bye", "hello"}, []string{list[0].Name, list[1].Name, list[2].Name})

		byName, err := r.FindTagsByName(ctx, 1, "hello")
		require.NoError(t, err)
		require.Len(t, byName, 2)
		assert.Equal(t, "World", byName[0].Text)

		first, err := tags.FirstByName(ctx, r, 1, "hello")
		require.NoError(t, err)
		require.NoError(t, r.UpdateTagText(ctx, first, "Updated"))

		first, err = tags.FirstByName(ctx, r, 1, "hello")
		require.NoError(t, err)
		assert.Equal(t, "Updated", first.Text)

		_, err = tags.FirstByName(ctx, r, 1, "missing")
		assert.ErrorIs(t, err, tags.ErrNotFound)

		n, err := r.DeleteTagsByName(ctx, 1, "hello")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		list, err = r.FindTagsByUser(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "bye", list[0].Name)

		// deletion is scoped to the owner
		otherList, err := r.FindTagsByUser(ctx, 2)
		require.NoError(t, err)
		require.Len(t, otherList, 1)
		assert.Equal(t, "Other user", otherList[0].Text)
		return nil
	}))
}

func TestUpdateMissingTag(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	err := s.WithinTx(ctx, func(r tags.Repository) error {
		return r.UpdateTagText(ctx, tags.Tag{ID: 999}, "x")
	})
	assert.ErrorIs(t, err, tags.ErrNotFound)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(r tags.Repository) error {
		u, err := r.CreateUser(ctx, 9, "x")
		require.NoError(t, err)
		_, err = r.CreateTag(ctx, u, "t", "text")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	db := sqltest.Open(t)
	s := New(db)
	require.NoError(t, db.Close())

	err := s.WithinTx(context.Background(), func(r tags.Repository) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var coder interface{ Code() string }
	require.ErrorAs(t, err, &coder)
	assert.Equal(t, "store_unavailable", coder.Code())
}
