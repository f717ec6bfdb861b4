package interaction_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/notify"
	"github.com/oggyb/matchmaker/internal/service/interaction"
	"github.com/oggyb/matchmaker/internal/service/match"
	"github.com/oggyb/matchmaker/internal/testutil"
)

//
// Test helpers
//

// setupService wires an interaction Service over SQLite + miniredis with
// users ana, carlos, david and an administrator.
func setupService(t *testing.T) (*interaction.Service, *match.Service, *testutil.Env) {
	t.Helper()

	env := testutil.NewEnv(t)
	testutil.Users(t, env.DB,
		db.User{ID: "ana", Name: "Ana", Gender: "female", Age: 28},
		db.User{ID: "carlos", Name: "Carlos", Gender: "male", Age: 32},
		db.User{ID: "david", Name: "David", Gender: "male", Age: 30},
		db.User{ID: "admin", Name: "Admin", IsAdmin: true},
	)

	matches := match.NewService(env.App)
	return interaction.NewService(env.App, matches), matches, env
}

//
// Tests
//

// TestMutualLikeCreatesExactlyOneMatch covers the reciprocal path and
// idempotence of repeated likes.
func TestMutualLikeCreatesExactlyOneMatch(t *testing.T) {
	ctx := context.Background()
	svc, matches, env := setupService(t)

	res, err := svc.GiveLike(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.False(t, res.IsMatch)

	res, err = svc.GiveLike(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.False(t, res.IsMatch)
	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.Like{}, "from_user_id = ? AND to_user_id = ?", "ana", "carlos"))

	res, err = svc.GiveLike(ctx, "carlos", "ana")
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
	assert.NotEmpty(t, res.MatchID)

	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.Match{}, ""))
	for _, u := range []string{"ana", "carlos"} {
		got, err := matches.GetMatches(ctx, u)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, res.MatchID, got[0].ID)
	}

	// both notified of the match, carlos of one like only
	assert.Len(t, env.Notifier.For("ana", notify.KindNewMatch), 1)
	assert.Len(t, env.Notifier.For("carlos", notify.KindNewMatch), 1)
	assert.Len(t, env.Notifier.For("carlos", notify.KindNewLike), 1)
	assert.Len(t, env.Notifier.For("ana", notify.KindNewLike), 1)
}

func TestAdminLikeAlwaysMatches(t *testing.T) {
	ctx := context.Background()
	svc, _, env := setupService(t)

	res, err := svc.GiveLike(ctx, "admin", "david")
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
	assert.NotEmpty(t, res.MatchID)

	assert.Len(t, env.Notifier.For("david", notify.KindNewLike), 1)
	assert.Len(t, env.Notifier.For("david", notify.KindNewMatch), 1)

	// reciprocal like from david reuses the same match
	res2, err := svc.GiveLike(ctx, "david", "admin")
	require.NoError(t, err)
	assert.True(t, res2.IsMatch)
	assert.Equal(t, res.MatchID, res2.MatchID)
	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.Match{}, ""))
	assert.Len(t, env.Notifier.For("david", notify.KindNewMatch), 1)
}

// TestBannedUsersCannotMatch: a ban between two halves of a mutual like
// leaves the pair unmatched, and admins cannot like banned users either.
func TestBannedUsersCannotMatch(t *testing.T) {
	ctx := context.Background()
	svc, _, env := setupService(t)

	_, err := svc.GiveLike(ctx, "ana", "carlos")
	require.NoError(t, err)
	require.NoError(t, env.DB.Model(&db.User{}).Where("id = ?", "ana").Update("is_banned", true).Error)

	_, err = svc.GiveLike(ctx, "carlos", "ana")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
	_, err = svc.GiveLike(ctx, "ana", "david")
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)
	_, err = svc.GiveLike(ctx, "admin", "ana")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	assert.Zero(t, testutil.Count(t, env.DB, &db.Match{}, ""))
	assert.Zero(t, testutil.Count(t, env.DB, &db.Like{}, "to_user_id = ?", "ana"))
	assert.Empty(t, env.Notifier.For("ana", notify.KindNewMatch))
}

func TestDuplicateLikeSendsNoNotification(t *testing.T) {
	ctx := context.Background()
	svc, _, env := setupService(t)

	_, err := svc.GiveLike(ctx, "ana", "david")
	require.NoError(t, err)
	_, err = svc.GiveLike(ctx, "ana", "david")
	require.NoError(t, err)

	assert.Len(t, env.Notifier.For("david", notify.KindNewLike), 1)
}

func TestGiveLikeRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, err := svc.GiveLike(ctx, "ana", "ana")
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = svc.GiveLike(ctx, "ana", "ghost")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, err = svc.GiveLike(ctx, "ghost", "ana")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, err = svc.GiveDislike(ctx, "", "ana")
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestNotificationFailureDoesNotAbortLike(t *testing.T) {
	ctx := context.Background()
	svc, _, env := setupService(t)
	env.Notifier.Err = errors.New("fcm down")

	_, err := svc.GiveLike(ctx, "ana", "carlos")
	require.NoError(t, err)
	res, err := svc.GiveLike(ctx, "carlos", "ana")
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
}

func TestVoteChangeReplacesOppositeEdge(t *testing.T) {
	ctx := context.Background()
	svc, _, env := setupService(t)

	inserted, err := svc.GiveDislike(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.True(t, inserted)

	_, err = svc.GiveLike(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.Zero(t, testutil.Count(t, env.DB, &db.Dislike{}, "from_user_id = ?", "ana"))
	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.Like{}, "from_user_id = ?", "ana"))

	_, err = svc.GiveDislike(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.Zero(t, testutil.Count(t, env.DB, &db.Like{}, "from_user_id = ?", "ana"))
	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.Dislike{}, "from_user_id = ?", "ana"))

	// like in one direction, dislike in the other is allowed
	_, err = svc.GiveLike(ctx, "carlos", "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.Dislike{}, "from_user_id = ?", "ana"))
}

func TestGiveDislikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, env := setupService(t)

	inserted, err := svc.GiveDislike(ctx, "ana", "david")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = svc.GiveDislike(ctx, "ana", "david")
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.Dislike{}, ""))
	assert.Empty(t, env.Notifier.Sent)
}

// TestUnmatchResetsPair: A likes B, B likes A, A unmatches. A fresh like
// from A must not match immediately because B's like was cleared too.
func TestUnmatchResetsPair(t *testing.T) {
	ctx := context.Background()
	svc, matches, env := setupService(t)

	res, err := svc.GiveLike(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.False(t, res.IsMatch)

	res, err = svc.GiveLike(ctx, "carlos", "ana")
	require.NoError(t, err)
	require.True(t, res.IsMatch)

	require.NoError(t, matches.Unmatch(ctx, "ana", res.MatchID))

	for _, u := range []string{"ana", "carlos"} {
		got, err := matches.GetMatches(ctx, u)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Zero(t, testutil.Count(t, env.DB, &db.Like{}, ""))

	res, err = svc.GiveLike(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.False(t, res.IsMatch)
	assert.False(t, res.Duplicate)
}

func TestRemoveAllBetweenUsers(t *testing.T) {
	ctx := context.Background()
	svc, _, env := setupService(t)

	_, _ = svc.GiveLike(ctx, "ana", "carlos")
	_, _ = svc.GiveDislike(ctx, "carlos", "ana")
	_, _ = svc.GiveLike(ctx, "ana", "david")

	require.NoError(t, svc.RemoveAllLikesBetweenUsers(ctx, "carlos", "ana"))
	require.NoError(t, svc.RemoveAllDislikesBetweenUsers(ctx, "carlos", "ana"))

	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.Like{}, ""))
	assert.Zero(t, testutil.Count(t, env.DB, &db.Dislike{}, ""))

	// removing what is not there is a no-op
	require.NoError(t, svc.RemoveLike(ctx, "carlos", "ana"))
	require.NoError(t, svc.RemoveDislike(ctx, "carlos", "ana"))
}

func TestConcurrentMutualLikesCreateOneMatch(t *testing.T) {
	ctx := context.Background()
	svc, _, env := setupService(t)

	var wg sync.WaitGroup
	for _, p := range [][2]string{{"ana", "carlos"}, {"carlos", "ana"}, {"ana", "carlos"}, {"carlos", "ana"}} {
		wg.Add(1)
		go func(from, to string) {
			defer wg.Done()
			_, err := svc.GiveLike(ctx, from, to)
			assert.NoError(t, err)
		}(p[0], p[1])
	}
	wg.Wait()

	assert.Equal(t, int64(2), testutil.Count(t, env.DB, &db.Like{}, ""))
	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.Match{}, ""))
}

func TestCountLikesReceivedUsesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, env := setupService(t)

	_, _ = svc.GiveLike(ctx, "carlos", "ana")

	n, err := svc.CountLikesReceived(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, env.Redis.Exists(env.App.RedisCache.KeyForLikeCount("ana")))

	// cached counter is bumped in place
	_, _ = svc.GiveLike(ctx, "david", "ana")
	v, err := env.Redis.Get(env.App.RedisCache.KeyForLikeCount("ana"))
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	// a dislike by ana hides carlos and drops the cached value
	_, _ = svc.GiveDislike(ctx, "ana", "carlos")
	assert.False(t, env.Redis.Exists(env.App.RedisCache.KeyForLikeCount("ana")))

	n, err = svc.CountLikesReceived(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLikesReceivedAndGiven(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, _ = svc.GiveLike(ctx, "carlos", "ana")
	_, _ = svc.GiveLike(ctx, "david", "ana")
	_, _ = svc.GiveLike(ctx, "ana", "david")

	likers, next, err := svc.LikesReceived(ctx, "ana", "", 1)
	require.NoError(t, err)
	require.Len(t, likers, 1)
	require.NotEmpty(t, next)

	more, next2, err := svc.LikesReceived(ctx, "ana", next, 1)
	require.NoError(t, err)
	require.Len(t, more, 1)
	assert.Empty(t, next2)
	assert.ElementsMatch(t, []string{"carlos", "david"}, []string{likers[0].UserID, more[0].UserID})

	given, err := svc.LikesGiven(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"david"}, given)
}
