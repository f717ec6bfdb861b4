package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/testutil"
)

func TestEdgeInsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	likes := repository.NewLikeRepository(dbase)

	inserted, err := likes.Insert(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = likes.Insert(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Equal(t, int64(1), testutil.Count(t, dbase, &db.Like{}, ""))

	// opposite direction is a different edge
	inserted, err = likes.Insert(ctx, "carlos", "ana")
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestEdgeConcurrentInsertYieldsOneRow(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	likes := repository.NewLikeRepository(dbase)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := likes.Insert(ctx, "ana", "carlos")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	assert.Equal(t, int64(1), testutil.Count(t, dbase, &db.Like{}, ""))
}

func TestLikesAndDislikesAreSeparateTables(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	likes := repository.NewLikeRepository(dbase)
	dislikes := repository.NewDislikeRepository(dbase)

	_, err := likes.Insert(ctx, "ana", "carlos")
	require.NoError(t, err)

	ok, err := dislikes.Exists(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = likes.Exists(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEdgeDeleteRemovesLegacyDuplicates(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	likes := repository.NewLikeRepository(dbase)

	// rows written with random ids by an older client
	require.NoError(t, dbase.Create(&db.Like{Edge: db.Edge{ID: "legacy-1", FromUserID: "ana", ToUserID: "carlos"}}).Error)
	require.NoError(t, dbase.Create(&db.Like{Edge: db.Edge{ID: "legacy-2", FromUserID: "ana", ToUserID: "carlos"}}).Error)

	n, err := likes.Delete(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// no-op when nothing is left
	n, err = likes.Delete(ctx, "ana", "carlos")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEdgeDeleteBetween(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	likes := repository.NewLikeRepository(dbase)

	_, _ = likes.Insert(ctx, "ana", "carlos")
	_, _ = likes.Insert(ctx, "carlos", "ana")
	_, _ = likes.Insert(ctx, "ana", "david")

	n, err := likes.DeleteBetween(ctx, "carlos", "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int64(1), testutil.Count(t, dbase, &db.Like{}, ""))
}

func TestReceivedExcludesAnsweredWithOppositeKind(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	likes := repository.NewLikeRepository(dbase)
	dislikes := repository.NewDislikeRepository(dbase)

	_, _ = likes.Insert(ctx, "carlos", "ana")
	_, _ = likes.Insert(ctx, "david", "ana")
	// ana disliked david → hidden from "liked you"
	_, _ = dislikes.Insert(ctx, "ana", "david")

	edges, next, err := likes.Received(ctx, "ana", "", 10)
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, edges, 1)
	assert.Equal(t, "carlos", edges[0].FromUserID)

	count, err := likes.CountReceived(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReceivedPagination(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	likes := repository.NewLikeRepository(dbase)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, from := range []string{"u1", "u2", "u3", "u4", "u5"} {
		require.NoError(t, dbase.Create(&db.Like{Edge: db.Edge{
			ID: from, FromUserID: from, ToUserID: "ana", CreatedAt: base.Add(time.Duration(i) * time.Second),
		}}).Error)
	}

	var (
		got   []string
		token string
	)
	for page := 0; page < 5; page++ {
		edges, next, err := likes.Received(ctx, "ana", token, 2)
		require.NoError(t, err)
		for _, e := range edges {
			got = append(got, e.FromUserID)
		}
		if next == "" {
			break
		}
		token = next
	}
	assert.Equal(t, []string{"u5", "u4", "u3", "u2", "u1"}, got)
}

func TestReceivedRejectsBadToken(t *testing.T) {
	dbase := testutil.NewDB(t)
	likes := repository.NewLikeRepository(dbase)

	_, _, err := likes.Received(context.Background(), "ana", "not-a-token", 2)
	assert.Error(t, err)
}

func TestTargetsOf(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	dislikes := repository.NewDislikeRepository(dbase)

	_, _ = dislikes.Insert(ctx, "ana", "carlos")
	_, _ = dislikes.Insert(ctx, "ana", "david")
	_, _ = dislikes.Insert(ctx, "david", "ana")

	ids, err := dislikes.TargetsOf(ctx, "ana")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"carlos", "david"}, ids)
}
