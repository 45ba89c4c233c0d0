package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"carpool/internal/model"
	"carpool/internal/store"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should log in with a bcrypt password", func(t *testing.T) {
		st := newTestStore(t)
		a := NewAuthService(st)
		_, err := a.SaveUser(ctx, "eric", "secret", false)
		require.NoError(t, err)

		u, err := a.Login(ctx, "eric", "secret")
		require.NoError(t, err)
		assert.Equal(t, "eric", u.Username)

		_, err = a.Login(ctx, "eric", "wrong")
		assert.ErrorIs(t, err, ErrBadCredentials)
		_, err = a.Login(ctx, "nobody", "secret")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("Should upgrade a legacy sha256 hash on login", func(t *testing.T) {
		st := newTestStore(t)
		sum := sha256.Sum256([]byte("admin"))
		require.NoError(t, st.SaveUser(ctx, &model.User{Username: "admin", PasswordHash: hex.EncodeToString(sum[:]), IsAdmin: true}))
		a := NewAuthService(st)

		_, err := a.Login(ctx, "admin", "nope")
		assert.ErrorIs(t, err, ErrBadCredentials)

		u, err := a.Login(ctx, "admin", "admin")
		require.NoError(t, err)
		assert.True(t, u.IsAdmin)

		stored, err := st.GetUser(ctx, "admin")
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("admin")))

		_, err = a.Login(ctx, "admin", "admin")
		assert.NoError(t, err)
	})

	t.Run("Should validate password changes", func(t *testing.T) {
		st := newTestStore(t)
		a := NewAuthService(st)
		_, err := a.SaveUser(ctx, "sam", "one", false)
		require.NoError(t, err)

		assert.ErrorIs(t, a.ChangePassword(ctx, "sam", "two", "three"), ErrPasswordMismatch)
		assert.ErrorIs(t, a.ChangePassword(ctx, "sam", "", ""), ErrEmptyPassword)
		require.NoError(t, a.ChangePassword(ctx, "sam", "two", "two"))

		_, err = a.Login(ctx, "sam", "two")
		assert.NoError(t, err)
	})

	t.Run("Should reset users and report unknown ones", func(t *testing.T) {
		st := newTestStore(t)
		a := NewAuthService(st)
		_, err := a.SaveUser(ctx, " carla ", "pw", false)
		require.NoError(t, err)

		require.NoError(t, a.ResetUser(ctx, "carla", "new", true))
		u, err := a.Login(ctx, "carla", "new")
		require.NoError(t, err)
		assert.True(t, u.IsAdmin)

		assert.ErrorIs(t, a.ResetUser(ctx, "ghost", "x", false), store.ErrUserNotFound)
		_, err = a.SaveUser(ctx, "  ", "pw", false)
		assert.ErrorIs(t, err, ErrEmptyUsername)

		users, err := a.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}
