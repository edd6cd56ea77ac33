package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/auth"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
)

func TestLogin_StoresTokenAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var changes []auth.Change
	unsubscribe := env.subject.Subscribe(func(c auth.Change) { changes = append(changes, c) })
	defer unsubscribe()
	tok := signToken(t, auth.RoleAdmin, time.Hour)

	sess, err := env.sessions.Login(ctx, testClient, "Bearer "+tok)

	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, auth.RoleAdmin, sess.Role)
	require.NotNil(t, sess.ExpiresAt)

	stored, present, err := env.store.Get(ctx, testClient, storage.KeyToken)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, tok, stored)
	assert.Equal(t, []auth.Change{{ClientID: testClient, Authenticated: true, Role: auth.RoleAdmin}}, changes)
}

func TestLogin_RejectsExpiredToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Login(context.Background(), testClient, signToken(t, "", -time.Minute))

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, present, _ := env.store.Get(context.Background(), testClient, storage.KeyToken)
	assert.False(t, present)
}

func TestLogin_RejectsMalformedToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Login(context.Background(), testClient, "not.a.jwt")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "")

	require.NoError(t, env.sessions.Logout(ctx, testClient))

	sess, err := env.sessions.Current(ctx, testClient)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
}

func TestCurrent_ExpiredTokenIsDiscarded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.Set(ctx, testClient, storage.KeyToken, signToken(t, "", -time.Second)))
	var loggedOut bool
	env.subject.Subscribe(func(c auth.Change) { loggedOut = !c.Authenticated })

	sess, err := env.sessions.Current(ctx, testClient)

	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
	assert.True(t, loggedOut)
	_, present, _ := env.store.Get(ctx, testClient, storage.KeyToken)
	assert.False(t, present)
}

func TestRequireToken_Absent(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.sessions.RequireToken(context.Background(), testClient)

	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, MsgLoginRequired, appErr.Message)
	assert.Equal(t, RedirectLogin, appErr.Redirect)
}

func TestOptionalToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tok, err := env.sessions.OptionalToken(ctx, testClient)
	require.NoError(t, err)
	assert.Empty(t, tok)

	want := env.login(t, "")
	tok, err = env.sessions.OptionalToken(ctx, testClient)
	require.NoError(t, err)
	assert.Equal(t, want, tok)
}

func TestRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "")
	_, err := env.sessions.RequireAdmin(ctx, testClient)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	env.login(t, auth.RoleAdmin)
	_, err = env.sessions.RequireAdmin(ctx, testClient)
	assert.NoError(t, err)
}
