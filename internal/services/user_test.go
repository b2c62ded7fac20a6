package services

import (
	"context"
	"testing"

	"shoe-market-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUser_Scoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice", "5551001")
	bob := f.signup(t, "bob", "5551002")

	got, err := f.users.GetUser(ctx, alice.ID, claimFor(alice))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)

	_, err = f.users.GetUser(ctx, alice.ID, claimFor(bob))
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.users.GetUser(ctx, alice.ID, adminClaim)
	assert.NoError(t, err)

	_, err = f.users.GetUser(ctx, "missing", adminClaim)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListUsers_AdminOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice", "5551001")
	f.signup(t, "bob", "5551002")

	_, err := f.users.ListUsers(context.Background(), claimFor(alice))
	assert.ErrorIs(t, err, models.ErrForbidden)

	users, err := f.users.ListUsers(context.Background(), adminClaim)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice", "5551001")
	bob := f.signup(t, "bob", "5551002")

	t.Run("phone collision with another user", func(t *testing.T) {
		_, err := f.users.UpdateUser(ctx, alice.ID, UpdateUserRequest{PhoneNumber: strPtr("5551002")}, claimFor(alice))
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("keeping own phone", func(t *testing.T) {
		updated, err := f.users.UpdateUser(ctx, alice.ID, UpdateUserRequest{
			PhoneNumber: strPtr("5551001"),
			UserName:    strPtr("alice2"),
		}, claimFor(alice))
		require.NoError(t, err)
		assert.Equal(t, "alice2", updated.UserName)
	})

	t.Run("another user's profile", func(t *testing.T) {
		_, err := f.users.UpdateUser(ctx, alice.ID, UpdateUserRequest{UserName: strPtr("x")}, claimFor(bob))
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("self promotion", func(t *testing.T) {
		_, err := f.users.UpdateUser(ctx, bob.ID, UpdateUserRequest{IsAdmin: boolPtr(true)}, claimFor(bob))
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("admin promotion", func(t *testing.T) {
		updated, err := f.users.UpdateUser(ctx, bob.ID, UpdateUserRequest{IsAdmin: boolPtr(true)}, adminClaim)
		require.NoError(t, err)
		assert.True(t, updated.IsAdmin)
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := f.users.UpdateUser(ctx, alice.ID, UpdateUserRequest{PhoneNumber: strPtr("12")}, claimFor(alice))
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("password change", func(t *testing.T) {
		_, err := f.users.UpdateUser(ctx, alice.ID, UpdateUserRequest{Password: strPtr("new-secret")}, claimFor(alice))
		require.NoError(t, err)

		_, err = f.auth.Login(ctx, LoginRequest{UserName: "alice2", PhoneNumber: "5551001", Password: "secret123"})
		assert.ErrorIs(t, err, models.ErrAuthenticationFailed)

		_, err = f.auth.Login(ctx, LoginRequest{UserName: "alice2", PhoneNumber: "5551001", Password: "new-secret"})
		assert.NoError(t, err)
	})

	t.Run("clearing push token", func(t *testing.T) {
		updated, err := f.users.UpdateUser(ctx, alice.ID, UpdateUserRequest{PushToken: strPtr("device")}, claimFor(alice))
		require.NoError(t, err)
		require.NotNil(t, updated.PushToken)

		updated, err = f.users.UpdateUser(ctx, alice.ID, UpdateUserRequest{PushToken: strPtr("")}, claimFor(alice))
		require.NoError(t, err)
		assert.Nil(t, updated.PushToken)
	})
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice", "5551001")
	bob := f.signup(t, "bob", "5551002")

	_, err := f.users.DeleteUser(ctx, alice.ID, claimFor(bob))
	assert.ErrorIs(t, err, models.ErrForbidden)

	deleted, err := f.users.DeleteUser(ctx, alice.ID, claimFor(alice))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, deleted.ID)

	_, err = f.users.DeleteUser(ctx, alice.ID, adminClaim)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// The phone number is free again
	f.signup(t, "alice", "5551001")
}
