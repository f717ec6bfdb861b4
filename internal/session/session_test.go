package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/session"
	"github.com/oggyb/matchmaker/internal/testutil"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	token, err := session.IssueToken(secret, "ana", time.Minute)
	require.NoError(t, err)

	id, err := session.ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "ana", id)
}

func TestParseTokenRejects(t *testing.T) {
	secret := []byte("s3cret")

	token, err := session.IssueToken([]byte("other"), "ana", time.Minute)
	require.NoError(t, err)
	_, err = session.ParseToken(secret, token)
	assert.ErrorIs(t, err, session.ErrInvalidToken)

	expired, err := session.IssueToken(secret, "ana", -time.Minute)
	require.NoError(t, err)
	_, err = session.ParseToken(secret, expired)
	assert.ErrorIs(t, err, session.ErrInvalidToken)

	_, err = session.ParseToken(secret, "garbage")
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestContext(t *testing.T) {
	_, ok := session.FromContext(context.Background())
	assert.False(t, ok)

	ctx := session.NewContext(context.Background(), session.Session{UserID: "ana", IsAdmin: true})
	s, ok := session.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "ana", s.UserID)
	assert.True(t, s.IsAdmin)
}

func TestStoreRefreshReflectsMutation(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	rc, _ := testutil.NewRedis(t)
	users := repository.NewUserRepository(dbase)
	store := session.NewStore(rc, users, testutil.Logger())

	testutil.Users(t, dbase, db.User{ID: "ana", Name: "Ana"})

	s, err := store.Load(ctx, "ana")
	require.NoError(t, err)
	assert.False(t, s.IsVerified)

	require.NoError(t, users.Update(ctx, "ana", map[string]any{"is_verified": true}))

	// cached copy is stale until refreshed
	s, err = store.Load(ctx, "ana")
	require.NoError(t, err)
	assert.False(t, s.IsVerified)

	_, err = store.Refresh(ctx, "ana")
	require.NoError(t, err)
	s, err = store.Load(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, s.IsVerified)
}

func TestStoreUnknownUser(t *testing.T) {
	dbase := testutil.NewDB(t)
	rc, _ := testutil.NewRedis(t)
	store := session.NewStore(rc, repository.NewUserRepository(dbase), testutil.Logger())

	_, err := store.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}
