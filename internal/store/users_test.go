package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lapress/pkg/events"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

func TestInsertUser(t *testing.T) {
	ctx := context.Background()
	d := events.NewDispatcher(nil)
	var saved []int64
	d.On(events.UserSaved, func(_ context.Context, e events.Event) error {
		saved = append(saved, e.EntityID)
		return nil
	})
	b := newTestBackend(t, WithEvents(d))

	u := &types.User{Login: "Jane Doe", Email: "jane@example.com", Pass: "$2a$10$hash"}
	require.NoError(t, b.InsertUser(ctx, u))
	assert.Positive(t, u.ID)
	assert.Equal(t, "jane-doe", u.Nicename)
	assert.Equal(t, "Jane Doe", u.DisplayName)
	assert.Equal(t, testNow, u.Registered)
	assert.Equal(t, []int64{u.ID}, saved)

	got, err := b.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "$2a$10$hash", got.Pass)
	assert.True(t, got.Registered.Equal(testNow))
	assert.Equal(t, "/author/jane-doe", got.URLPath())

	byLogin, err := b.FindUserByLogin(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byLogin.ID)
}

func TestInsertUser_Errors(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	assert.ErrorIs(t, b.InsertUser(ctx, nil), types.ErrInvalidName)
	assert.ErrorIs(t, b.InsertUser(ctx, &types.User{}), types.ErrInvalidName)

	require.NoError(t, b.InsertUser(ctx, &types.User{Login: "admin"}))
	assert.ErrorIs(t, b.InsertUser(ctx, &types.User{Login: "admin"}), types.ErrDuplicate)

	_, err := b.FindUserByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.FindUserByLogin(ctx, "")
	assert.ErrorIs(t, err, types.ErrInvalidName)
	_, err = b.GetUser(ctx, 0)
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestUserMeta(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	editor := &types.User{Login: "editor"}
	author := &types.User{Login: "author"}
	require.NoError(t, b.InsertUser(ctx, editor))
	require.NoError(t, b.InsertUser(ctx, author))
	require.NoError(t, editor.SetManyMeta(ctx, types.DefaultUserMeta("editor")...))
	require.NoError(t, author.SetManyMeta(ctx, types.DefaultUserMeta("")...))

	users, err := b.FindUsersByMeta(ctx, "wp_user_level", "2")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = b.FindUsersByMeta(ctx, "wp_capabilities", `a:1:{s:6:"editor";b:1;}`)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, editor.ID, users[0].ID)

	rows, err := b.FetchMetaRows(ctx, "user", author.ID)
	require.NoError(t, err)
	require.Len(t, rows, len(types.DefaultUserMeta("")))
	for i := 1; i < len(rows); i++ {
		assert.Greater(t, rows[i].ID, rows[i-1].ID, "rows come back in insertion order")
	}
}
